package datasets

import (
	"github.com/pkg/errors"
	"github.com/weaviate/hdf5"
)

// Provenance attribute names written by the conversion utility onto the
// split table dataset.
const (
	InterfaceVersionAttr = "interface_version"
	ConvertVersionAttr   = "fuel_convert_version"
	ConvertCommandAttr   = "fuel_convert_command"
)

// SourceInfo summarizes one source of a container.
type SourceInfo struct {
	Name       string   `json:"name"`
	Shape      []int    `json:"shape"`
	Dtype      string   `json:"dtype"`
	AxisLabels []string `json:"axisLabels,omitempty"`
}

// Description summarizes a container for inspection tooling.
type Description struct {
	Path             string       `json:"path"`
	Sources          []SourceInfo `json:"sources"`
	SplitTable       []SplitEntry `json:"splits"`
	InterfaceVersion string       `json:"interfaceVersion,omitempty"`
	ConvertVersion   string       `json:"convertVersion,omitempty"`
	ConvertCommand   string       `json:"convertCommand,omitempty"`
}

// Describe opens a container and summarizes its sources, split table
// and provenance tags.
func Describe(path string) (*Description, error) {
	file, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, errors.Wrapf(err, "open container %s", path)
	}
	defer file.Close()

	table, err := ReadSplitTable(file)
	if err != nil {
		return nil, err
	}

	desc := &Description{Path: path, SplitTable: table}

	num, err := file.NumObjects()
	if err != nil {
		return nil, errors.Wrap(err, "count container objects")
	}
	for i := uint(0); i < num; i++ {
		name, err := file.ObjectNameByIndex(i)
		if err != nil {
			return nil, errors.Wrapf(err, "object name at index %d", i)
		}
		if name == SplitDatasetName {
			continue
		}
		info, err := describeSource(file, name)
		if err != nil {
			return nil, err
		}
		desc.Sources = append(desc.Sources, info)
	}

	split, err := file.OpenDataset(SplitDatasetName)
	if err != nil {
		return nil, errors.Wrap(err, "open split table")
	}
	defer split.Close()
	if desc.InterfaceVersion, err = ReadTag(split, InterfaceVersionAttr); err != nil {
		return nil, err
	}
	if desc.ConvertVersion, err = ReadTag(split, ConvertVersionAttr); err != nil {
		return nil, err
	}
	if desc.ConvertCommand, err = ReadTag(split, ConvertCommandAttr); err != nil {
		return nil, err
	}
	return desc, nil
}

func describeSource(file *hdf5.File, name string) (SourceInfo, error) {
	dset, err := file.OpenDataset(name)
	if err != nil {
		return SourceInfo{}, errors.Wrapf(err, "open source %q", name)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return SourceInfo{}, errors.Wrapf(err, "read extent of source %q", name)
	}

	dtype, err := dtypeOf(dset)
	if err != nil {
		return SourceInfo{}, errors.Wrapf(err, "source %q", name)
	}

	labels, err := ReadAxisLabels(dset, len(dims))
	if err != nil {
		return SourceInfo{}, err
	}

	shape := make([]int, len(dims))
	for i, dim := range dims {
		shape[i] = int(dim)
	}
	return SourceInfo{Name: name, Shape: shape, Dtype: dtype.String(), AxisLabels: labels}, nil
}
