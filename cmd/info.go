package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/udibr/fuel/datasets"
)

var infoCmd = &cobra.Command{
	Use:   "info <container.hdf5>",
	Short: "Inspect a dataset container",
	Long:  `Print the sources, axis labels and split table of a dataset container`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := globalConfig
		cfg.Mode = "info"
		cfg.ContainerFile = args[0]

		if err := cfg.Validate(); err != nil {
			fatal(err)
		}

		desc, err := datasets.Describe(cfg.ContainerFile)
		if err != nil {
			fatal(err)
		}

		if cfg.OutputFormat == "json" {
			_, err = writeDescriptionJSON(os.Stdout, desc)
		} else {
			_, err = writeDescriptionText(os.Stdout, desc)
		}
		if err != nil {
			fatal(err)
		}
	},
}

func initInfo() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.PersistentFlags().StringVarP(&globalConfig.OutputFormat,
		"format", "f", "text", "Output format, one of [text, json]")
}

func formatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = fmt.Sprint(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func writeDescriptionText(w io.Writer, desc *datasets.Description) (int64, error) {
	b := strings.Builder{}

	b.WriteString(fmt.Sprintf("Container: %s\n", desc.Path))
	if desc.InterfaceVersion != "" {
		b.WriteString(fmt.Sprintf("Interface version: %s\n", desc.InterfaceVersion))
	}
	if desc.ConvertVersion != "" {
		b.WriteString(fmt.Sprintf("Convert version: %s\n", desc.ConvertVersion))
	}
	if desc.ConvertCommand != "" {
		b.WriteString(fmt.Sprintf("Convert command: %s\n", desc.ConvertCommand))
	}

	b.WriteString("Sources:\n")
	for _, src := range desc.Sources {
		line := fmt.Sprintf("  %s: shape %s, dtype %s", src.Name,
			formatShape(src.Shape), src.Dtype)
		if len(src.AxisLabels) > 0 {
			line += fmt.Sprintf(", axes [%s]", strings.Join(src.AxisLabels, " "))
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("Splits:\n")
	for _, entry := range desc.SplitTable {
		line := fmt.Sprintf("  %s/%s: [%d, %d)", entry.Split, entry.Source,
			entry.Start, entry.Stop)
		if !entry.Available {
			line += " unavailable"
		}
		if entry.Comment != "" {
			line += fmt.Sprintf(" (%s)", entry.Comment)
		}
		b.WriteString(line + "\n")
	}

	n, err := w.Write([]byte(b.String()))
	return int64(n), err
}

func writeDescriptionJSON(w io.Writer, desc *datasets.Description) (int, error) {
	bytes, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return 0, err
	}
	return w.Write(append(bytes, '\n'))
}
