package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/udibr/fuel/downloaders"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the raw files of a built-in dataset",
	Long:  `Download the raw distribution files of a built-in dataset into a directory, ready for fuel convert`,
}

func initDownload() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.PersistentFlags().StringVarP(&globalConfig.Directory,
		"directory", "d", ".", "Directory in which downloaded files are saved")
	downloadCmd.PersistentFlags().BoolVar(&globalConfig.Clobber,
		"clobber", false, "Overwrite files already present in the directory")

	names := maps.Keys(downloaders.All)
	slices.Sort(names)
	for _, name := range names {
		spec := downloaders.All[name]
		downloadCmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: "Download the " + name + " dataset",
			Run: func(cmd *cobra.Command, args []string) {
				cfg := globalConfig
				cfg.Mode = "download"

				if err := cfg.Validate(); err != nil {
					fatal(err)
				}
				if err := downloaders.Download(context.Background(), spec,
					cfg.Directory, cfg.Clobber); err != nil {
					fatal(err)
				}
			},
		})
	}
}
