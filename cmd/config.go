package cmd

import (
	"os"

	"github.com/pkg/errors"
)

type Config struct {
	Mode            string
	Directory       string
	OutputDirectory string
	OutputFilename  string
	Dtype           string
	Clobber         bool
	OutputFormat    string
	ContainerFile   string
}

func (c *Config) Validate() error {
	switch c.Mode {
	case "download":
		return c.validateDownload()
	case "convert":
		return c.validateConvert()
	case "info":
		return c.validateInfo()
	default:
		return errors.Errorf("unrecognized mode %q", c.Mode)
	}
}

func checkDirectory(path, flag string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Errorf("%s %q is not an existing directory", flag, path)
	}
	if !info.IsDir() {
		return errors.Errorf("%s %q is not a directory", flag, path)
	}
	return nil
}

func (c *Config) validateDownload() error {
	return checkDirectory(c.Directory, "directory")
}

func (c *Config) validateConvert() error {
	if err := checkDirectory(c.Directory, "directory"); err != nil {
		return err
	}
	if err := checkDirectory(c.OutputDirectory, "output directory"); err != nil {
		return err
	}
	switch c.Dtype {
	case "", "uint8", "bool", "float32":
	default:
		return errors.Errorf("unsupported dtype %q, must be one of [uint8, bool, float32]",
			c.Dtype)
	}
	return nil
}

func (c *Config) validateInfo() error {
	if c.ContainerFile == "" {
		return errors.Errorf("a container file must be provided")
	}

	switch c.OutputFormat {
	case "text", "":
		c.OutputFormat = "text"
	case "json":
	default:
		return errors.Errorf("unsupported output format %q, must be one of [text, json]",
			c.OutputFormat)
	}
	return nil
}
