package datasets

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/weaviate/hdf5"
)

// SplitDatasetName is the reserved top-level dataset holding the split
// table. Every other top-level dataset in a container is a source.
const SplitDatasetName = "split"

var (
	// ErrSplitNotFound is returned when a container has no entry for a
	// requested split name.
	ErrSplitNotFound = errors.New("split not found")

	// ErrSourceNotFound is returned when a split has no entry for a
	// requested source name.
	ErrSourceNotFound = errors.New("source not found")

	// ErrUnavailable is returned when a (split, source) combination is
	// present but marked unavailable in the split table.
	ErrUnavailable = errors.New("split/source combination unavailable")
)

// SplitEntry is one record of the split table: it maps a (split, source)
// pair to the half-open row range [Start, Stop) of that source.
type SplitEntry struct {
	Split     string `json:"split"`
	Source    string `json:"source"`
	Start     int64  `json:"start"`
	Stop      int64  `json:"stop"`
	Available bool   `json:"available"`
	Comment   string `json:"comment,omitempty"`
}

// NumExamples returns the number of examples covered by the entry.
func (e SplitEntry) NumExamples() int {
	return int(e.Stop - e.Start)
}

// On-disk record layout. Names and the comment are fixed-width
// NUL-padded byte fields so the compound type round-trips through the
// bindings' reflection without variable-length strings.
type splitRecord struct {
	Split     [32]byte
	Source    [32]byte
	Start     int64
	Stop      int64
	Available uint8
	Comment   [64]byte
}

func packString(dst []byte, s string, field string) error {
	if len(s) > len(dst) {
		return errors.Errorf("%s %q longer than %d bytes", field, s, len(dst))
	}
	copy(dst, s)
	return nil
}

func unpackString(src []byte) string {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		return string(src[:i])
	}
	return string(src)
}

func (e SplitEntry) record() (splitRecord, error) {
	var rec splitRecord
	if err := packString(rec.Split[:], e.Split, "split name"); err != nil {
		return rec, err
	}
	if err := packString(rec.Source[:], e.Source, "source name"); err != nil {
		return rec, err
	}
	if err := packString(rec.Comment[:], e.Comment, "comment"); err != nil {
		return rec, err
	}
	rec.Start = e.Start
	rec.Stop = e.Stop
	if e.Available {
		rec.Available = 1
	}
	return rec, nil
}

func (r splitRecord) entry() SplitEntry {
	return SplitEntry{
		Split:     unpackString(r.Split[:]),
		Source:    unpackString(r.Source[:]),
		Start:     r.Start,
		Stop:      r.Stop,
		Available: r.Available != 0,
		Comment:   unpackString(r.Comment[:]),
	}
}

// validateEntries checks the split-table invariants that do not need
// the container: ordered non-negative ranges and consistent example
// counts across the available sources of each split.
func validateEntries(entries []SplitEntry) error {
	counts := make(map[string]int)
	for _, e := range entries {
		if e.Split == "" || e.Source == "" {
			return errors.Errorf("split table entry with empty name: %+v", e)
		}
		if e.Start < 0 || e.Stop < e.Start {
			return errors.Errorf("split %q source %q: invalid range [%d, %d)",
				e.Split, e.Source, e.Start, e.Stop)
		}
		if !e.Available {
			continue
		}
		if n, ok := counts[e.Split]; ok && n != e.NumExamples() {
			return errors.Errorf("split %q: source %q has %d examples, expected %d",
				e.Split, e.Source, e.NumExamples(), n)
		}
		counts[e.Split] = e.NumExamples()
	}
	return nil
}

// WriteSplitTable writes the split table as a 1-D compound dataset named
// "split" at the root of the file.
func WriteSplitTable(f *hdf5.File, entries []SplitEntry) error {
	if err := validateEntries(entries); err != nil {
		return err
	}

	recs := make([]splitRecord, len(entries))
	for i, e := range entries {
		rec, err := e.record()
		if err != nil {
			return err
		}
		recs[i] = rec
	}

	dtype, err := hdf5.NewDatatypeFromValue(splitRecord{})
	if err != nil {
		return errors.Wrap(err, "create split record datatype")
	}
	defer dtype.Close()

	space, err := hdf5.CreateSimpleDataspace([]uint{uint(len(recs))}, nil)
	if err != nil {
		return errors.Wrap(err, "create split dataspace")
	}
	defer space.Close()

	dset, err := f.CreateDataset(SplitDatasetName, dtype, space)
	if err != nil {
		return errors.Wrap(err, "create split dataset")
	}
	defer dset.Close()

	if err := dset.Write(&recs); err != nil {
		return errors.Wrap(err, "write split table")
	}
	return nil
}

// ReadSplitTable reads the split table of an open container.
func ReadSplitTable(f *hdf5.File) ([]SplitEntry, error) {
	dset, err := f.OpenDataset(SplitDatasetName)
	if err != nil {
		return nil, errors.Wrapf(err, "container has no %q dataset", SplitDatasetName)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, errors.Wrap(err, "read split table extent")
	}
	if len(dims) != 1 {
		return nil, errors.Errorf("split table must be 1-D, got %d dimensions", len(dims))
	}

	recs := make([]splitRecord, dims[0])
	if err := dset.Read(&recs); err != nil {
		return nil, errors.Wrap(err, "read split table")
	}

	entries := make([]SplitEntry, len(recs))
	for i, r := range recs {
		entries[i] = r.entry()
	}
	return entries, nil
}

// findEntry resolves one (split, source) combination. Unknown splits,
// unknown sources and unavailable combinations are distinct errors; a
// comment on an unavailable entry is carried in the error message.
func findEntry(entries []SplitEntry, split, source string) (SplitEntry, error) {
	seenSplit := false
	for _, e := range entries {
		if e.Split != split {
			continue
		}
		seenSplit = true
		if e.Source != source {
			continue
		}
		if !e.Available {
			if e.Comment != "" {
				return SplitEntry{}, errors.Wrapf(ErrUnavailable, "%s/%s (%s)",
					split, source, e.Comment)
			}
			return SplitEntry{}, errors.Wrapf(ErrUnavailable, "%s/%s", split, source)
		}
		return e, nil
	}
	if !seenSplit {
		return SplitEntry{}, errors.Wrapf(ErrSplitNotFound, "%q", split)
	}
	return SplitEntry{}, errors.Wrapf(ErrSourceNotFound, "%q in split %q", source, split)
}

// splitSources lists the available sources of a split in table order.
func splitSources(entries []SplitEntry, split string) []string {
	var sources []string
	for _, e := range entries {
		if e.Split == split && e.Available {
			sources = append(sources, e.Source)
		}
	}
	return sources
}

// Splits lists the distinct split names of a table in first-seen order.
func Splits(entries []SplitEntry) []string {
	var names []string
	seen := make(map[string]bool)
	for _, e := range entries {
		if !seen[e.Split] {
			seen[e.Split] = true
			names = append(names, e.Split)
		}
	}
	return names
}
