package converters

import (
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/udibr/fuel/datasets"
)

func writeIDXImages(t *testing.T, path string, magic int32, images []uint8, n int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	require.NoError(t, binary.Write(gz, binary.BigEndian,
		[]int32{magic, int32(n), 28, 28}))
	_, err = gz.Write(images)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
}

func writeIDXLabels(t *testing.T, path string, magic int32, labels []uint8) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	require.NoError(t, binary.Write(gz, binary.BigEndian,
		[]int32{magic, int32(len(labels))}))
	_, err = gz.Write(labels)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
}

// mnistFixture writes a mock 10-example MNIST distribution and returns
// the directory plus the raw train/test data.
func mnistFixture(t *testing.T) (string, []uint8, []uint8, []uint8, []uint8) {
	t.Helper()
	dir := t.TempDir()

	pixels := func(seed int) []uint8 {
		data := make([]uint8, 10*28*28)
		for i := range data {
			data[i] = uint8((i*7 + seed) % 256)
		}
		return data
	}
	labels := func(seed int) []uint8 {
		data := make([]uint8, 10)
		for i := range data {
			data[i] = uint8((i + seed) % 10)
		}
		return data
	}

	trainImages, testImages := pixels(1), pixels(5)
	trainLabels, testLabels := labels(1), labels(5)

	writeIDXImages(t, filepath.Join(dir, mnistFiles[0]), mnistImageMagic, trainImages, 10)
	writeIDXLabels(t, filepath.Join(dir, mnistFiles[1]), mnistLabelMagic, trainLabels)
	writeIDXImages(t, filepath.Join(dir, mnistFiles[2]), mnistImageMagic, testImages, 10)
	writeIDXLabels(t, filepath.Join(dir, mnistFiles[3]), mnistLabelMagic, testLabels)
	return dir, trainImages, trainLabels, testImages, testLabels
}

func TestReadMNISTImages(t *testing.T) {
	dir, trainImages, _, _, _ := mnistFixture(t)
	path := filepath.Join(dir, mnistFiles[0])

	arr, err := ReadMNISTImages(path, "uint8")
	require.NoError(t, err)
	require.Equal(t, []int{10, 1, 28, 28}, arr.Shape)
	require.Equal(t, trainImages, arr.Uint8s)
}

func TestReadMNISTImagesBool(t *testing.T) {
	dir, trainImages, _, _, _ := mnistFixture(t)

	arr, err := ReadMNISTImages(filepath.Join(dir, mnistFiles[0]), "bool")
	require.NoError(t, err)
	for i, v := range trainImages {
		if v >= 128 {
			require.Equal(t, uint8(1), arr.Uint8s[i])
		} else {
			require.Equal(t, uint8(0), arr.Uint8s[i])
		}
	}
}

func TestReadMNISTImagesFloat32(t *testing.T) {
	dir, trainImages, _, _, _ := mnistFixture(t)

	arr, err := ReadMNISTImages(filepath.Join(dir, mnistFiles[0]), "float32")
	require.NoError(t, err)
	require.Equal(t, datasets.Float32, arr.Dtype)
	require.Equal(t, float32(trainImages[0])/255, arr.Float32s[0])
	require.Equal(t, float32(trainImages[100])/255, arr.Float32s[100])
}

func TestReadMNISTImagesBadDtype(t *testing.T) {
	dir, _, _, _, _ := mnistFixture(t)

	_, err := ReadMNISTImages(filepath.Join(dir, mnistFiles[0]), "int32")
	require.Error(t, err)
}

func TestReadMNISTWrongMagic(t *testing.T) {
	dir := t.TempDir()
	images := filepath.Join(dir, "wrong_images.gz")
	labelsPath := filepath.Join(dir, "wrong_labels.gz")
	writeIDXImages(t, images, 2000, make([]uint8, 10*28*28), 10)
	writeIDXLabels(t, labelsPath, 2000, make([]uint8, 10))

	_, err := ReadMNISTImages(images, "uint8")
	require.Error(t, err)
	require.Contains(t, err.Error(), "wrong magic")

	_, err = ReadMNISTLabels(labelsPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "wrong magic")
}

func TestConvertMNIST(t *testing.T) {
	dir, trainImages, trainLabels, testImages, testLabels := mnistFixture(t)

	paths, err := ConvertMNIST(Config{Directory: dir, OutputDirectory: dir})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.Equal(t, "mnist.hdf5", filepath.Base(paths[0]))

	train, err := datasets.Open(paths[0], "train")
	require.NoError(t, err)
	defer train.Close()

	require.Equal(t, 10, train.NumExamples())
	require.Equal(t, []string{"features", "targets"}, train.Sources())

	labels, err := train.AxisLabels("features")
	require.NoError(t, err)
	require.Equal(t, []string{"batch", "channel", "height", "width"}, labels)
	labels, err = train.AxisLabels("targets")
	require.NoError(t, err)
	require.Equal(t, []string{"batch", "index"}, labels)

	data, err := train.Slice(0, 10)
	require.NoError(t, err)
	require.Equal(t, []int{10, 1, 28, 28}, data["features"].Shape)
	require.Equal(t, trainImages, data["features"].Uint8s)
	require.Equal(t, trainLabels, data["targets"].Uint8s)

	test, err := datasets.Open(paths[0], "test")
	require.NoError(t, err)
	defer test.Close()

	data, err = test.Slice(0, 10)
	require.NoError(t, err)
	require.Equal(t, testImages, data["features"].Uint8s)
	require.Equal(t, testLabels, data["targets"].Uint8s)
}

func TestConvertMNISTDtypeNames(t *testing.T) {
	dir, _, _, _, _ := mnistFixture(t)

	paths, err := ConvertMNIST(Config{Directory: dir, OutputDirectory: dir, Dtype: "bool"})
	require.NoError(t, err)
	require.Equal(t, "mnist_bool.hdf5", filepath.Base(paths[0]))

	paths, err = ConvertMNIST(Config{Directory: dir, OutputDirectory: dir,
		Dtype: "float32"})
	require.NoError(t, err)
	require.Equal(t, "mnist_float32.hdf5", filepath.Base(paths[0]))

	ds, err := datasets.Open(paths[0], "train")
	require.NoError(t, err)
	defer ds.Close()
	dtype, err := ds.Dtype("features")
	require.NoError(t, err)
	require.Equal(t, datasets.Float32, dtype)
}

func TestConvertMNISTOutputFilename(t *testing.T) {
	dir, _, _, _, _ := mnistFixture(t)

	paths, err := ConvertMNIST(Config{Directory: dir, OutputDirectory: dir,
		OutputFilename: "mock_mnist.hdf5"})
	require.NoError(t, err)
	require.Equal(t, "mock_mnist.hdf5", filepath.Base(paths[0]))
}

func TestConvertMNISTMissingInputs(t *testing.T) {
	dir := t.TempDir()

	_, err := ConvertMNIST(Config{Directory: dir, OutputDirectory: dir})
	var missing *MissingInputFilesError
	require.True(t, errors.As(err, &missing))
	require.Len(t, missing.Filenames, 4)
}

func TestTagFile(t *testing.T) {
	dir, _, _, _, _ := mnistFixture(t)

	paths, err := ConvertMNIST(Config{Directory: dir, OutputDirectory: dir})
	require.NoError(t, err)

	require.NoError(t, TagFile(paths[0], "fuel convert mnist"))

	desc, err := datasets.Describe(paths[0])
	require.NoError(t, err)
	require.Equal(t, InterfaceVersion, desc.InterfaceVersion)
	require.Equal(t, ConvertVersion, desc.ConvertVersion)
	require.Equal(t, "fuel convert mnist", desc.ConvertCommand)
}
