package datasets

// Iterator walks a view batch by batch, following an iteration plan's
// index requests. Contiguous requests are read as a single hyperslab,
// arbitrary ones are gathered row by row.
type Iterator struct {
	d        *Dataset
	requests [][]int
	i        int
	data     map[string]*Array
	err      error
}

// Iterate returns an iterator over the given batch requests, as
// produced by an iteration scheme.
func (d *Dataset) Iterate(requests [][]int) *Iterator {
	return &Iterator{d: d, requests: requests}
}

// Next advances to the next batch. It returns false when the plan is
// exhausted or a read failed; Err distinguishes the two.
func (it *Iterator) Next() bool {
	if it.err != nil || it.i >= len(it.requests) {
		return false
	}
	indices := it.requests[it.i]
	it.i++

	if start, stop, ok := contiguous(indices); ok {
		it.data, it.err = it.d.Slice(start, stop)
	} else {
		it.data, it.err = it.d.Gather(indices)
	}
	return it.err == nil
}

// Data returns the batch read by the last successful Next.
func (it *Iterator) Data() map[string]*Array {
	return it.data
}

// Err returns the first read error, if any.
func (it *Iterator) Err() error {
	return it.err
}

func contiguous(indices []int) (int, int, bool) {
	if len(indices) == 0 {
		return 0, 0, true
	}
	for i := 1; i < len(indices); i++ {
		if indices[i] != indices[i-1]+1 {
			return 0, 0, false
		}
	}
	return indices[0], indices[len(indices)-1] + 1, true
}
