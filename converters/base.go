// Package converters builds dataset containers from raw distribution
// files: one converter per built-in dataset plus the shared container
// filling logic.
package converters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/weaviate/hdf5"

	"github.com/udibr/fuel/datasets"
)

// InterfaceVersion tags containers with the dataset interface they were
// written for; ConvertVersion tracks the converters themselves.
const (
	InterfaceVersion = "0.3"
	ConvertVersion   = "0.2"
)

// Config carries the common conversion arguments.
type Config struct {
	// Directory holds the raw input files.
	Directory string
	// OutputDirectory receives the container file.
	OutputDirectory string
	// OutputFilename overrides the converter's default name.
	OutputFilename string
	// Dtype selects the stored element type for converters that
	// support it (mnist: uint8, bool, float32).
	Dtype string
}

// ConvertFunc converts raw files into containers and returns the paths
// of the files it wrote.
type ConvertFunc func(cfg Config) ([]string, error)

// All maps built-in dataset names to their converters.
var All = map[string]ConvertFunc{
	"mnist":           ConvertMNIST,
	"binarized_mnist": ConvertBinarizedMNIST,
	"iris":            ConvertIris,
}

// MissingInputFilesError reports required input files absent from the
// input directory, so callers can suggest downloading first.
type MissingInputFilesError struct {
	Task      string
	Filenames []string
}

func (e *MissingInputFilesError) Error() string {
	return fmt.Sprintf("%s: missing input files: %s",
		e.Task, strings.Join(e.Filenames, ", "))
}

// checkExists verifies all required input files are present.
func checkExists(directory, task string, filenames []string) error {
	var missing []string
	for _, name := range filenames {
		if _, err := os.Stat(filepath.Join(directory, name)); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingInputFilesError{Task: task, Filenames: missing}
	}
	return nil
}

// SplitData is one source's data within one split, in the order it
// should appear in the container.
type SplitData struct {
	Split   string
	Source  string
	Data    *datasets.Array
	Comment string
}

// Fill writes sources and the split table into an open container file.
// Each source's arrays are concatenated across splits along the leading
// axis, in the order given; dtype and trailing shape must agree. Splits
// that lack a source get an unavailable split-table entry, so every
// (split, source) combination is represented.
func Fill(file *hdf5.File, parts []SplitData, axisLabels map[string][]string) error {
	type sourceData struct {
		name   string
		arrays []*datasets.Array
	}
	var (
		sources     []*sourceData
		sourceIndex = make(map[string]*sourceData)
		splits      []string
		splitSeen   = make(map[string]bool)
	)
	entries := make(map[string]map[string]datasets.SplitEntry)

	for _, part := range parts {
		if part.Data == nil || len(part.Data.Shape) == 0 {
			return errors.Errorf("split %q source %q: no data", part.Split, part.Source)
		}
		src, ok := sourceIndex[part.Source]
		if !ok {
			src = &sourceData{name: part.Source}
			sourceIndex[part.Source] = src
			sources = append(sources, src)
		}
		if len(src.arrays) > 0 {
			prev := src.arrays[0]
			if prev.Dtype != part.Data.Dtype {
				return errors.Errorf("source %q: dtype %s in split %q, %s earlier",
					part.Source, part.Data.Dtype, part.Split, prev.Dtype)
			}
			if !sameTrailingShape(prev.Shape, part.Data.Shape) {
				return errors.Errorf("source %q: trailing shape mismatch in split %q",
					part.Source, part.Split)
			}
		}
		if !splitSeen[part.Split] {
			splitSeen[part.Split] = true
			splits = append(splits, part.Split)
			entries[part.Split] = make(map[string]datasets.SplitEntry)
		}
		if _, dup := entries[part.Split][part.Source]; dup {
			return errors.Errorf("duplicate data for split %q source %q",
				part.Split, part.Source)
		}

		offset := 0
		for _, arr := range src.arrays {
			offset += arr.Len()
		}
		entries[part.Split][part.Source] = datasets.SplitEntry{
			Split:     part.Split,
			Source:    part.Source,
			Start:     int64(offset),
			Stop:      int64(offset + part.Data.Len()),
			Available: true,
			Comment:   part.Comment,
		}
		src.arrays = append(src.arrays, part.Data)
	}

	for _, src := range sources {
		if err := writeSource(file, src.name, src.arrays, axisLabels[src.name]); err != nil {
			return err
		}
	}

	// Full cross product, with unavailable entries for absent combos.
	var table []datasets.SplitEntry
	for _, split := range splits {
		for _, src := range sources {
			if entry, ok := entries[split][src.name]; ok {
				table = append(table, entry)
			} else {
				table = append(table, datasets.SplitEntry{
					Split:  split,
					Source: src.name,
				})
			}
		}
	}
	return datasets.WriteSplitTable(file, table)
}

func sameTrailingShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 1; i < len(a); i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// writeSource concatenates the arrays along the leading axis and writes
// them as one dataset.
func writeSource(file *hdf5.File, name string, arrays []*datasets.Array, labels []string) error {
	total := 0
	for _, arr := range arrays {
		total += arr.Len()
	}
	shape := make([]int, len(arrays[0].Shape))
	copy(shape, arrays[0].Shape)
	shape[0] = total

	out := datasets.NewArray(arrays[0].Dtype, shape...)
	offset := 0
	for _, arr := range arrays {
		out.CopyRows(arr, offset, 0, arr.Len())
		offset += arr.Len()
	}

	return datasets.WriteSource(file, name, out, labels)
}

// writeContainer creates the output file, fills it and returns its
// path. Shared tail of every converter.
func writeContainer(cfg Config, defaultName string, parts []SplitData,
	axisLabels map[string][]string) ([]string, error) {
	name := cfg.OutputFilename
	if name == "" {
		name = defaultName
	}
	path := filepath.Join(cfg.OutputDirectory, name)

	file, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, errors.Wrapf(err, "create container %s", path)
	}
	if err := Fill(file, parts, axisLabels); err != nil {
		file.Close()
		os.Remove(path)
		return nil, err
	}
	if err := file.Close(); err != nil {
		return nil, errors.Wrapf(err, "close container %s", path)
	}
	return []string{path}, nil
}

// TagFile records conversion provenance on an existing container: the
// interface and converter versions plus the exact command line.
func TagFile(path, command string) error {
	file, err := hdf5.OpenFile(path, hdf5.F_ACC_RDWR)
	if err != nil {
		return errors.Wrapf(err, "open container %s", path)
	}
	defer file.Close()

	split, err := file.OpenDataset(datasets.SplitDatasetName)
	if err != nil {
		return errors.Wrapf(err, "open split table of %s", path)
	}
	defer split.Close()

	if err := datasets.WriteTag(split, datasets.InterfaceVersionAttr, InterfaceVersion); err != nil {
		return err
	}
	if err := datasets.WriteTag(split, datasets.ConvertVersionAttr, ConvertVersion); err != nil {
		return err
	}
	return datasets.WriteTag(split, datasets.ConvertCommandAttr, command)
}
