package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDownload(t *testing.T) {
	dir := t.TempDir()

	c := Config{Mode: "download", Directory: dir}
	require.NoError(t, c.Validate())

	c = Config{Mode: "download", Directory: dir + "/nope"}
	require.Error(t, c.Validate())
}

func TestValidateConvert(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"defaults", Config{Mode: "convert", Directory: dir, OutputDirectory: dir}, true},
		{"dtype bool", Config{Mode: "convert", Directory: dir, OutputDirectory: dir,
			Dtype: "bool"}, true},
		{"bad dtype", Config{Mode: "convert", Directory: dir, OutputDirectory: dir,
			Dtype: "int16"}, false},
		{"missing input dir", Config{Mode: "convert", Directory: dir + "/nope",
			OutputDirectory: dir}, false},
		{"missing output dir", Config{Mode: "convert", Directory: dir,
			OutputDirectory: dir + "/nope"}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.cfg.Validate()
			if test.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestValidateInfo(t *testing.T) {
	c := Config{Mode: "info", ContainerFile: "mnist.hdf5"}
	require.NoError(t, c.Validate())
	require.Equal(t, "text", c.OutputFormat)

	c = Config{Mode: "info", ContainerFile: "mnist.hdf5", OutputFormat: "json"}
	require.NoError(t, c.Validate())

	c = Config{Mode: "info", ContainerFile: "mnist.hdf5", OutputFormat: "yaml"}
	require.Error(t, c.Validate())

	c = Config{Mode: "info"}
	require.Error(t, c.Validate())
}

func TestValidateUnknownMode(t *testing.T) {
	c := Config{Mode: "benchmark"}
	require.Error(t, c.Validate())
}
