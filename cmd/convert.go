package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/udibr/fuel/converters"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert downloaded files into a dataset container",
	Long:  `Convert the raw files of a built-in dataset into an HDF5 container with sources, axis labels and a split table`,
}

func initConvert() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.PersistentFlags().StringVarP(&globalConfig.Directory,
		"directory", "d", ".", "Directory in which input files reside")
	convertCmd.PersistentFlags().StringVarP(&globalConfig.OutputDirectory,
		"output-directory", "o", ".", "Where to save the container")
	convertCmd.PersistentFlags().StringVar(&globalConfig.OutputFilename,
		"output-filename", "", "Override the default container filename")
	convertCmd.PersistentFlags().StringVar(&globalConfig.Dtype,
		"dtype", "", "Element type for converters that support it, one of [uint8, bool, float32]")

	names := maps.Keys(converters.All)
	slices.Sort(names)
	for _, name := range names {
		convert := converters.All[name]
		convertCmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: "Convert the " + name + " dataset",
			Run: func(cmd *cobra.Command, args []string) {
				cfg := globalConfig
				cfg.Mode = "convert"

				if err := cfg.Validate(); err != nil {
					fatal(err)
				}

				paths, err := convert(converters.Config{
					Directory:       cfg.Directory,
					OutputDirectory: cfg.OutputDirectory,
					OutputFilename:  cfg.OutputFilename,
					Dtype:           cfg.Dtype,
				})
				if err != nil {
					var missing *converters.MissingInputFilesError
					if errors.As(err, &missing) {
						infof("The following required files were not found:")
						for _, f := range missing.Filenames {
							infof("   * %s", f)
						}
						infof("Did you forget to run fuel download?")
						os.Exit(1)
					}
					fatal(err)
				}

				command := strings.Join(
					append([]string{filepath.Base(os.Args[0])}, os.Args[1:]...), " ")
				for _, path := range paths {
					if err := converters.TagFile(path, command); err != nil {
						fatal(err)
					}
					infof("Wrote %s", path)
				}
			},
		})
	}
}
