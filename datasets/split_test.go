package datasets

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestSplitRecordRoundTrip(t *testing.T) {
	entries := []SplitEntry{
		{Split: "train", Source: "features", Start: 0, Stop: 90, Available: true},
		{Split: "train", Source: "targets", Start: 0, Stop: 90, Available: true, Comment: "labels"},
		{Split: "test", Source: "features", Start: 90, Stop: 100, Available: true},
		{Split: "test", Source: "targets", Start: 0, Stop: 0, Comment: "not distributed"},
	}

	for _, entry := range entries {
		rec, err := entry.record()
		require.NoError(t, err)
		require.Equal(t, entry, rec.entry())
	}
}

func TestSplitRecordOverflow(t *testing.T) {
	long := SplitEntry{Split: strings.Repeat("x", 33), Source: "features"}
	_, err := long.record()
	require.Error(t, err)

	comment := SplitEntry{Split: "train", Source: "features",
		Comment: strings.Repeat("c", 65)}
	_, err = comment.record()
	require.Error(t, err)
}

func TestValidateEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []SplitEntry
		ok      bool
	}{
		{
			"consistent counts",
			[]SplitEntry{
				{Split: "train", Source: "features", Start: 0, Stop: 90, Available: true},
				{Split: "train", Source: "targets", Start: 0, Stop: 90, Available: true},
				{Split: "test", Source: "features", Start: 90, Stop: 100, Available: true},
			},
			true,
		},
		{
			"unavailable entries do not count",
			[]SplitEntry{
				{Split: "train", Source: "features", Start: 0, Stop: 90, Available: true},
				{Split: "train", Source: "targets", Start: 0, Stop: 0},
			},
			true,
		},
		{
			"count mismatch within split",
			[]SplitEntry{
				{Split: "train", Source: "features", Start: 0, Stop: 90, Available: true},
				{Split: "train", Source: "targets", Start: 0, Stop: 80, Available: true},
			},
			false,
		},
		{
			"reversed range",
			[]SplitEntry{
				{Split: "train", Source: "features", Start: 10, Stop: 5, Available: true},
			},
			false,
		},
		{
			"negative start",
			[]SplitEntry{
				{Split: "train", Source: "features", Start: -1, Stop: 5, Available: true},
			},
			false,
		},
		{
			"empty name",
			[]SplitEntry{{Split: "", Source: "features", Available: true}},
			false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := validateEntries(test.entries)
			if test.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestFindEntry(t *testing.T) {
	table := []SplitEntry{
		{Split: "train", Source: "features", Start: 0, Stop: 90, Available: true},
		{Split: "train", Source: "latents", Start: 0, Stop: 0, Comment: "not computed"},
		{Split: "test", Source: "features", Start: 90, Stop: 100, Available: true},
	}

	entry, err := findEntry(table, "train", "features")
	require.NoError(t, err)
	require.Equal(t, 90, entry.NumExamples())

	_, err = findEntry(table, "valid", "features")
	require.True(t, errors.Is(err, ErrSplitNotFound))

	_, err = findEntry(table, "test", "targets")
	require.True(t, errors.Is(err, ErrSourceNotFound))

	_, err = findEntry(table, "train", "latents")
	require.True(t, errors.Is(err, ErrUnavailable))
	require.Contains(t, err.Error(), "not computed")
}

func TestSplitSources(t *testing.T) {
	table := []SplitEntry{
		{Split: "train", Source: "features", Start: 0, Stop: 90, Available: true},
		{Split: "train", Source: "latents", Start: 0, Stop: 0},
		{Split: "train", Source: "targets", Start: 0, Stop: 90, Available: true},
		{Split: "test", Source: "features", Start: 90, Stop: 100, Available: true},
	}

	require.Equal(t, []string{"features", "targets"}, splitSources(table, "train"))
	require.Equal(t, []string{"features"}, splitSources(table, "test"))
	require.Nil(t, splitSources(table, "valid"))

	require.Equal(t, []string{"train", "test"}, Splits(table))
}
