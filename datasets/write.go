package datasets

import (
	"github.com/pkg/errors"
	"github.com/weaviate/hdf5"
)

// WriteSource writes one source array as a top-level dataset, with
// optional per-axis labels. Used by the converters.
func WriteSource(f *hdf5.File, name string, arr *Array, labels []string) error {
	if name == SplitDatasetName {
		return errors.Errorf("%q is reserved for the split table", name)
	}
	if len(arr.Shape) == 0 {
		return errors.Errorf("source %q: scalar arrays are not supported", name)
	}

	dims := make([]uint, len(arr.Shape))
	for i, d := range arr.Shape {
		dims[i] = uint(d)
	}

	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return errors.Wrapf(err, "create dataspace for source %q", name)
	}
	defer space.Close()

	dset, err := f.CreateDataset(name, arr.Dtype.nativeType(), space)
	if err != nil {
		return errors.Wrapf(err, "create source %q", name)
	}
	defer dset.Close()

	if err := dset.Write(arr.data()); err != nil {
		return errors.Wrapf(err, "write source %q", name)
	}

	if labels != nil {
		if len(labels) != len(arr.Shape) {
			return errors.Errorf("source %q: %d axis labels for rank %d",
				name, len(labels), len(arr.Shape))
		}
		if err := WriteAxisLabels(dset, labels); err != nil {
			return errors.Wrapf(err, "label source %q", name)
		}
	}
	return nil
}
