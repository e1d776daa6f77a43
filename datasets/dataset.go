// Package datasets reads split-aware HDF5 dataset containers: files
// holding one named array per source, a compound split table mapping
// (split, source) pairs to row ranges, and per-axis labels.
package datasets

import (
	log "github.com/sirupsen/logrus"

	"github.com/pkg/errors"
	"github.com/weaviate/hdf5"
)

// ErrNonUnitStride is returned when a subset is requested with a stride
// other than one. Only unit (or unset) strides are supported.
var ErrNonUnitStride = errors.New("only unit stride subsets are supported")

type options struct {
	sources []string
	start   int
	stop    int
	step    int
	subset  bool
}

// Option configures Open.
type Option func(*options)

// WithSources restricts the view to the named sources, in the given
// order. Default: all available sources of the split, in table order.
func WithSources(names ...string) Option {
	return func(o *options) { o.sources = names }
}

// WithSubset restricts the view to rows [start, stop) of the split.
func WithSubset(start, stop int) Option {
	return func(o *options) {
		o.start, o.stop, o.step = start, stop, 1
		o.subset = true
	}
}

// WithSubsetStride is WithSubset with an explicit stride. Any stride
// other than one fails with ErrNonUnitStride.
func WithSubsetStride(start, stop, step int) Option {
	return func(o *options) {
		o.start, o.stop, o.step = start, stop, step
		o.subset = true
	}
}

// Dataset is a read-only view over one split of a container: a source
// subset plus an optional sub-range, exposing example count and
// slice-based retrieval.
type Dataset struct {
	file        *hdf5.File
	path        string
	split       string
	sources     []string
	entries     map[string]SplitEntry
	numExamples int
	offset      int // sub-range start, relative to the split
}

// Open opens the container at path and resolves the named split.
func Open(path, split string, opts ...Option) (*Dataset, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.subset && o.step != 1 && o.step != 0 {
		return nil, errors.Wrapf(ErrNonUnitStride, "stride %d", o.step)
	}

	file, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, errors.Wrapf(err, "open container %s", path)
	}

	d, err := newDataset(file, path, split, o)
	if err != nil {
		file.Close()
		return nil, err
	}
	return d, nil
}

func newDataset(file *hdf5.File, path, split string, o options) (*Dataset, error) {
	table, err := ReadSplitTable(file)
	if err != nil {
		return nil, err
	}

	sources := o.sources
	if sources == nil {
		sources = splitSources(table, split)
		if sources == nil {
			return nil, errors.Wrapf(ErrSplitNotFound, "%q", split)
		}
	}
	if len(sources) == 0 {
		return nil, errors.Errorf("no sources requested for split %q", split)
	}

	d := &Dataset{
		file:    file,
		path:    path,
		split:   split,
		sources: sources,
		entries: make(map[string]SplitEntry, len(sources)),
	}

	num := -1
	for _, source := range sources {
		entry, err := findEntry(table, split, source)
		if err != nil {
			return nil, err
		}
		length, err := d.sourceLength(source)
		if err != nil {
			return nil, err
		}
		if entry.Stop > int64(length) {
			return nil, errors.Errorf(
				"split %q source %q: range [%d, %d) exceeds source length %d",
				split, source, entry.Start, entry.Stop, length)
		}
		if num >= 0 && entry.NumExamples() != num {
			return nil, errors.Errorf(
				"split %q: source %q has %d examples, source %q has %d",
				split, source, entry.NumExamples(), sources[0], num)
		}
		num = entry.NumExamples()
		d.entries[source] = entry
	}
	d.numExamples = num

	if o.subset {
		if o.start < 0 || o.stop < o.start || o.stop > num {
			return nil, errors.Errorf(
				"subset [%d, %d) out of bounds for split %q with %d examples",
				o.start, o.stop, split, num)
		}
		d.offset = o.start
		d.numExamples = o.stop - o.start
	}
	return d, nil
}

// Close releases the underlying file handle.
func (d *Dataset) Close() error {
	return d.file.Close()
}

// Split returns the split name of the view.
func (d *Dataset) Split() string { return d.split }

// NumExamples returns the number of examples in the view.
func (d *Dataset) NumExamples() int { return d.numExamples }

// Sources returns the source names of the view, in order.
func (d *Dataset) Sources() []string {
	out := make([]string, len(d.sources))
	copy(out, d.sources)
	return out
}

func (d *Dataset) entry(source string) (SplitEntry, error) {
	entry, ok := d.entries[source]
	if !ok {
		return SplitEntry{}, errors.Wrapf(ErrSourceNotFound, "%q in view", source)
	}
	return entry, nil
}

func (d *Dataset) sourceLength(source string) (int, error) {
	dims, err := d.sourceDims(source)
	if err != nil {
		return 0, err
	}
	return int(dims[0]), nil
}

func (d *Dataset) sourceDims(source string) ([]uint, error) {
	dset, err := d.file.OpenDataset(source)
	if err != nil {
		return nil, errors.Wrapf(err, "open source %q", source)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, errors.Wrapf(err, "read extent of source %q", source)
	}
	if len(dims) == 0 {
		return nil, errors.Errorf("source %q is scalar", source)
	}
	return dims, nil
}

// Shape returns the shape of a source within the view: the example
// count followed by the source's trailing dimensions.
func (d *Dataset) Shape(source string) ([]int, error) {
	if _, err := d.entry(source); err != nil {
		return nil, err
	}
	dims, err := d.sourceDims(source)
	if err != nil {
		return nil, err
	}
	shape := make([]int, len(dims))
	shape[0] = d.numExamples
	for i, dim := range dims[1:] {
		shape[i+1] = int(dim)
	}
	return shape, nil
}

// Dtype returns the element type of a source.
func (d *Dataset) Dtype(source string) (Dtype, error) {
	if _, err := d.entry(source); err != nil {
		return 0, err
	}
	dset, err := d.file.OpenDataset(source)
	if err != nil {
		return 0, errors.Wrapf(err, "open source %q", source)
	}
	defer dset.Close()
	return dtypeOf(dset)
}

// AxisLabels returns the per-axis labels of a source, or nil when the
// container carries none.
func (d *Dataset) AxisLabels(source string) ([]string, error) {
	if _, err := d.entry(source); err != nil {
		return nil, err
	}
	dims, err := d.sourceDims(source)
	if err != nil {
		return nil, err
	}
	dset, err := d.file.OpenDataset(source)
	if err != nil {
		return nil, errors.Wrapf(err, "open source %q", source)
	}
	defer dset.Close()
	return ReadAxisLabels(dset, len(dims))
}

func (d *Dataset) checkRange(start, stop int) error {
	if start < 0 || stop < start || stop > d.numExamples {
		return errors.Errorf("slice [%d, %d) out of bounds for %d examples",
			start, stop, d.numExamples)
	}
	return nil
}

// Slice returns rows [start, stop) of every source in the view, keyed
// by source name. Indices are relative to the view.
func (d *Dataset) Slice(start, stop int) (map[string]*Array, error) {
	if err := d.checkRange(start, stop); err != nil {
		return nil, err
	}
	out := make(map[string]*Array, len(d.sources))
	for _, source := range d.sources {
		arr, err := d.readRange(source, start, stop)
		if err != nil {
			return nil, err
		}
		out[source] = arr
	}
	return out, nil
}

// SliceSource returns rows [start, stop) of one source of the view.
func (d *Dataset) SliceSource(source string, start, stop int) (*Array, error) {
	if _, err := d.entry(source); err != nil {
		return nil, err
	}
	if err := d.checkRange(start, stop); err != nil {
		return nil, err
	}
	return d.readRange(source, start, stop)
}

// readRange reads rows [start, stop) of a source, view-relative, with a
// contiguous hyperslab selection.
func (d *Dataset) readRange(source string, start, stop int) (*Array, error) {
	entry := d.entries[source]
	base := int(entry.Start) + d.offset

	dset, err := d.file.OpenDataset(source)
	if err != nil {
		return nil, errors.Wrapf(err, "open source %q", source)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, errors.Wrapf(err, "read extent of source %q", source)
	}

	dtype, err := dtypeOf(dset)
	if err != nil {
		return nil, errors.Wrapf(err, "source %q", source)
	}

	n := stop - start
	shape := make([]int, len(dims))
	shape[0] = n
	for i, dim := range dims[1:] {
		shape[i+1] = int(dim)
	}
	arr := NewArray(dtype, shape...)
	if n == 0 {
		return arr, nil
	}

	count := make([]uint, len(dims))
	offset := make([]uint, len(dims))
	count[0] = uint(n)
	offset[0] = uint(base + start)
	copy(count[1:], dims[1:])

	memspace, err := hdf5.CreateSimpleDataspace(count, count)
	if err != nil {
		return nil, errors.Wrap(err, "create memspace")
	}
	defer memspace.Close()

	if err := space.SelectHyperslab(offset, nil, count, nil); err != nil {
		return nil, errors.Wrapf(err, "select rows [%d, %d) of source %q",
			base+start, base+stop, source)
	}
	if err := dset.ReadSubset(arr.data(), memspace, space); err != nil {
		return nil, errors.Wrapf(err, "read rows [%d, %d) of source %q",
			base+start, base+stop, source)
	}
	return arr, nil
}

// Gather returns the rows at the given view-relative indices for every
// source, preserving index order. Used by shuffled iteration schemes.
func (d *Dataset) Gather(indices []int) (map[string]*Array, error) {
	for _, idx := range indices {
		if idx < 0 || idx >= d.numExamples {
			return nil, errors.Errorf("index %d out of bounds for %d examples",
				idx, d.numExamples)
		}
	}
	out := make(map[string]*Array, len(d.sources))
	for _, source := range d.sources {
		shape, err := d.Shape(source)
		if err != nil {
			return nil, err
		}
		shape[0] = len(indices)
		var arr *Array
		for i, idx := range indices {
			row, err := d.readRange(source, idx, idx+1)
			if err != nil {
				return nil, err
			}
			if arr == nil {
				arr = NewArray(row.Dtype, shape...)
			}
			arr.CopyRows(row, i, 0, 1)
		}
		if arr == nil {
			dtype, err := d.Dtype(source)
			if err != nil {
				return nil, err
			}
			arr = NewArray(dtype, shape...)
		}
		out[source] = arr
	}
	return out, nil
}

// Batch is one streamed chunk of a source together with its offset
// within the view.
type Batch struct {
	Data   *Array
	Offset int
}

// Stream reads one source in contiguous batches and passes them into
// the chunks channel. Used to read from one goroutine while others
// consume, e.g. a training loop. The caller closes the channel.
func (d *Dataset) Stream(source string, batchSize int, chunks chan<- Batch) error {
	if _, err := d.entry(source); err != nil {
		return err
	}
	if batchSize <= 0 {
		return errors.Errorf("batch size must be positive, got %d", batchSize)
	}

	log.WithFields(log.Fields{
		"source": source, "split": d.split, "examples": d.numExamples,
	}).Debug("Streaming source")

	for i := 0; i < d.numExamples; i += batchSize {
		stop := i + batchSize
		if stop > d.numExamples {
			stop = d.numExamples
		}
		arr, err := d.readRange(source, i, stop)
		if err != nil {
			return err
		}
		if stop%10000 == 0 {
			log.Printf("Read %d/%d rows", stop, d.numExamples)
		}
		chunks <- Batch{Data: arr, Offset: i}
	}
	return nil
}
