package datasets

import (
	"github.com/pkg/errors"
	"github.com/weaviate/hdf5"
)

// AxisLabelsAttr is the per-source attribute carrying one label per
// axis, e.g. ("batch", "channel", "height", "width"). The name matches
// what h5py stores for dimension labels.
const AxisLabelsAttr = "DIMENSION_LABELS"

type label32 [32]byte

// tagValue is the fixed-width value type for provenance attributes.
type tagValue [256]byte

// WriteAxisLabels attaches axis labels to a source dataset. The number
// of labels must match the dataset rank.
func WriteAxisLabels(dset *hdf5.Dataset, labels []string) error {
	recs := make([]label32, len(labels))
	for i, l := range labels {
		if err := packString(recs[i][:], l, "axis label"); err != nil {
			return err
		}
	}

	dtype, err := hdf5.NewDatatypeFromValue(label32{})
	if err != nil {
		return errors.Wrap(err, "create label datatype")
	}
	defer dtype.Close()

	space, err := hdf5.CreateSimpleDataspace([]uint{uint(len(recs))}, nil)
	if err != nil {
		return errors.Wrap(err, "create label dataspace")
	}
	defer space.Close()

	attr, err := dset.CreateAttribute(AxisLabelsAttr, dtype, space)
	if err != nil {
		return errors.Wrapf(err, "create %s attribute", AxisLabelsAttr)
	}
	defer attr.Close()

	if err := attr.Write(&recs[0], dtype); err != nil {
		return errors.Wrapf(err, "write %s attribute", AxisLabelsAttr)
	}
	return nil
}

// ReadAxisLabels reads the axis labels of a source dataset of known
// rank. Sources without labels return nil.
func ReadAxisLabels(dset *hdf5.Dataset, rank int) ([]string, error) {
	attr, err := dset.OpenAttribute(AxisLabelsAttr)
	if err != nil {
		return nil, nil
	}
	defer attr.Close()

	dtype, err := hdf5.NewDatatypeFromValue(label32{})
	if err != nil {
		return nil, errors.Wrap(err, "create label datatype")
	}
	defer dtype.Close()

	recs := make([]label32, rank)
	if err := attr.Read(&recs[0], dtype); err != nil {
		return nil, errors.Wrapf(err, "read %s attribute", AxisLabelsAttr)
	}

	labels := make([]string, rank)
	for i, r := range recs {
		labels[i] = unpackString(r[:])
	}
	return labels, nil
}

// WriteTag attaches a provenance attribute (version, command line) to a
// dataset, typically the split table.
func WriteTag(dset *hdf5.Dataset, name, value string) error {
	var rec tagValue
	if err := packString(rec[:], value, name); err != nil {
		return err
	}

	dtype, err := hdf5.NewDatatypeFromValue(tagValue{})
	if err != nil {
		return errors.Wrap(err, "create tag datatype")
	}
	defer dtype.Close()

	space, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return errors.Wrap(err, "create tag dataspace")
	}
	defer space.Close()

	attr, err := dset.CreateAttribute(name, dtype, space)
	if err != nil {
		return errors.Wrapf(err, "create %s attribute", name)
	}
	defer attr.Close()

	if err := attr.Write(&rec, dtype); err != nil {
		return errors.Wrapf(err, "write %s attribute", name)
	}
	return nil
}

// ReadTag reads a provenance attribute; missing tags return "".
func ReadTag(dset *hdf5.Dataset, name string) (string, error) {
	attr, err := dset.OpenAttribute(name)
	if err != nil {
		return "", nil
	}
	defer attr.Close()

	dtype, err := hdf5.NewDatatypeFromValue(tagValue{})
	if err != nil {
		return "", errors.Wrap(err, "create tag datatype")
	}
	defer dtype.Close()

	var rec tagValue
	if err := attr.Read(&rec, dtype); err != nil {
		return "", errors.Wrapf(err, "read %s attribute", name)
	}
	return unpackString(rec[:]), nil
}
