package converters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/udibr/fuel/datasets"
)

const irisFixture = `5.1,3.5,1.4,0.2,Iris-setosa
4.9,3.0,1.4,0.2,Iris-setosa
7.0,3.2,4.7,1.4,Iris-versicolor
6.4,3.2,4.5,1.5,Iris-versicolor
6.3,3.3,6.0,2.5,Iris-virginica
5.8,2.7,5.1,1.9,Iris-virginica

`

func TestReadIris(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, irisFile)
	require.NoError(t, os.WriteFile(path, []byte(irisFixture), 0o644))

	features, targets, err := ReadIris(path)
	require.NoError(t, err)
	require.Equal(t, []int{6, 4}, features.Shape)
	require.Equal(t, []int{6, 1}, targets.Shape)
	require.Equal(t, datasets.Float32, features.Dtype)
	require.Equal(t, float32(5.1), features.Float32s[0])
	require.Equal(t, float32(1.9), features.Float32s[23])
	require.Equal(t, []uint8{0, 0, 1, 1, 2, 2}, targets.Uint8s)
}

func TestReadIrisUnknownClass(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, irisFile)
	require.NoError(t, os.WriteFile(path,
		[]byte("5.1,3.5,1.4,0.2,Iris-unknown\n"), 0o644))

	_, _, err := ReadIris(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown class")
}

func TestConvertIris(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, irisFile),
		[]byte(irisFixture), 0o644))

	paths, err := ConvertIris(Config{Directory: dir, OutputDirectory: dir})
	require.NoError(t, err)
	require.Equal(t, "iris.hdf5", filepath.Base(paths[0]))

	ds, err := datasets.Open(paths[0], "all")
	require.NoError(t, err)
	defer ds.Close()

	require.Equal(t, 6, ds.NumExamples())
	require.Equal(t, []string{"features", "targets"}, ds.Sources())

	labels, err := ds.AxisLabels("features")
	require.NoError(t, err)
	require.Equal(t, []string{"batch", "feature"}, labels)
}

func TestConvertIrisMissingInput(t *testing.T) {
	dir := t.TempDir()

	_, err := ConvertIris(Config{Directory: dir, OutputDirectory: dir})
	require.Error(t, err)
}
