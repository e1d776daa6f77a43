// Package schemes builds iteration plans over example indices: which
// examples a training loop visits, in what order, and in what batches.
package schemes

import (
	"math/rand"
	"sort"

	"github.com/pkg/errors"
)

// BatchScheme yields lists of example indices, one list per batch.
type BatchScheme interface {
	BatchRequests() [][]int
}

// ExampleScheme yields single example indices.
type ExampleScheme interface {
	ExampleRequests() []int
}

func indexRange(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

func batchIndices(indices []int, batchSize int) [][]int {
	var batches [][]int
	for start := 0; start < len(indices); start += batchSize {
		stop := start + batchSize
		if stop > len(indices) {
			stop = len(indices)
		}
		batches = append(batches, indices[start:stop])
	}
	return batches
}

// SequentialScheme visits examples in order, in batches of BatchSize
// with a possibly smaller final batch.
type SequentialScheme struct {
	indices   []int
	batchSize int
}

// NewSequentialScheme iterates over examples 0..numExamples-1.
func NewSequentialScheme(numExamples, batchSize int) *SequentialScheme {
	return NewSequentialSchemeIndices(indexRange(numExamples), batchSize)
}

// NewSequentialSchemeIndices iterates over the given indices in order.
func NewSequentialSchemeIndices(indices []int, batchSize int) *SequentialScheme {
	return &SequentialScheme{indices: indices, batchSize: batchSize}
}

func (s *SequentialScheme) BatchRequests() [][]int {
	return batchIndices(s.indices, s.batchSize)
}

// ShuffledScheme visits examples in a fresh random order on every call
// to BatchRequests. With SortedIndices set, indices are sorted within
// each batch, which makes container reads closer to sequential.
type ShuffledScheme struct {
	indices   []int
	batchSize int
	rng       *rand.Rand

	SortedIndices bool
}

// NewShuffledScheme iterates over examples 0..numExamples-1 in random
// order drawn from rng.
func NewShuffledScheme(numExamples, batchSize int, rng *rand.Rand) *ShuffledScheme {
	return NewShuffledSchemeIndices(indexRange(numExamples), batchSize, rng)
}

// NewShuffledSchemeIndices iterates over the given indices in random
// order drawn from rng.
func NewShuffledSchemeIndices(indices []int, batchSize int, rng *rand.Rand) *ShuffledScheme {
	return &ShuffledScheme{indices: indices, batchSize: batchSize, rng: rng}
}

func (s *ShuffledScheme) shuffled() []int {
	indices := make([]int, len(s.indices))
	copy(indices, s.indices)
	s.rng.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
	return indices
}

func (s *ShuffledScheme) BatchRequests() [][]int {
	batches := batchIndices(s.shuffled(), s.batchSize)
	if s.SortedIndices {
		for _, batch := range batches {
			sort.Ints(batch)
		}
	}
	return batches
}

// SequentialExampleScheme visits examples one at a time, in order.
type SequentialExampleScheme struct {
	indices []int
}

func NewSequentialExampleScheme(numExamples int) *SequentialExampleScheme {
	return &SequentialExampleScheme{indices: indexRange(numExamples)}
}

func NewSequentialExampleSchemeIndices(indices []int) *SequentialExampleScheme {
	return &SequentialExampleScheme{indices: indices}
}

func (s *SequentialExampleScheme) ExampleRequests() []int {
	out := make([]int, len(s.indices))
	copy(out, s.indices)
	return out
}

// ShuffledExampleScheme visits examples one at a time, in a fresh
// random order on every call.
type ShuffledExampleScheme struct {
	indices []int
	rng     *rand.Rand
}

func NewShuffledExampleScheme(numExamples int, rng *rand.Rand) *ShuffledExampleScheme {
	return &ShuffledExampleScheme{indices: indexRange(numExamples), rng: rng}
}

func NewShuffledExampleSchemeIndices(indices []int, rng *rand.Rand) *ShuffledExampleScheme {
	return &ShuffledExampleScheme{indices: indices, rng: rng}
}

func (s *ShuffledExampleScheme) ExampleRequests() []int {
	indices := make([]int, len(s.indices))
	copy(indices, s.indices)
	s.rng.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
	return indices
}

// ConstantScheme yields a constant batch size. Bounded either by a
// total example budget (the final request is truncated) or by a fixed
// number of requests, but not both; with neither bound it is infinite.
type ConstantScheme struct {
	BatchSize   int
	NumExamples int
	Times       int
}

func (s ConstantScheme) validate() error {
	if s.BatchSize <= 0 {
		return errors.Errorf("batch size must be positive, got %d", s.BatchSize)
	}
	if s.NumExamples > 0 && s.Times > 0 {
		return errors.New("cannot set both num examples and times")
	}
	return nil
}

// Sizes returns all request sizes. The scheme must be bounded.
func (s ConstantScheme) Sizes() ([]int, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	switch {
	case s.Times > 0:
		sizes := make([]int, s.Times)
		for i := range sizes {
			sizes[i] = s.BatchSize
		}
		return sizes, nil
	case s.NumExamples > 0:
		var sizes []int
		for remaining := s.NumExamples; remaining > 0; remaining -= s.BatchSize {
			size := s.BatchSize
			if remaining < size {
				size = remaining
			}
			sizes = append(sizes, size)
		}
		return sizes, nil
	default:
		return nil, errors.New("unbounded constant scheme, use Iterator")
	}
}

// ConstantIterator yields request sizes one at a time.
type ConstantIterator struct {
	scheme    ConstantScheme
	requested int
	emitted   int
}

// Iterator returns an iterator over the scheme's request sizes,
// possibly infinite.
func (s ConstantScheme) Iterator() (*ConstantIterator, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &ConstantIterator{scheme: s}, nil
}

// Next returns the next request size, or false when exhausted.
func (it *ConstantIterator) Next() (int, bool) {
	s := it.scheme
	if s.Times > 0 {
		if it.emitted >= s.Times {
			return 0, false
		}
		it.emitted++
		return s.BatchSize, true
	}
	if s.NumExamples > 0 {
		remaining := s.NumExamples - it.requested
		if remaining <= 0 {
			return 0, false
		}
		size := s.BatchSize
		if remaining < size {
			size = remaining
		}
		it.requested += size
		return size, true
	}
	return s.BatchSize, true
}
