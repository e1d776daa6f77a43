package converters

import (
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/pkg/errors"

	"github.com/udibr/fuel/datasets"
)

// IDX file magics for the MNIST distribution.
const (
	mnistImageMagic = 2051
	mnistLabelMagic = 2049
)

var mnistFiles = []string{
	"train-images-idx3-ubyte.gz",
	"train-labels-idx1-ubyte.gz",
	"t10k-images-idx3-ubyte.gz",
	"t10k-labels-idx1-ubyte.gz",
}

// ConvertMNIST builds mnist.hdf5 from the four gzipped IDX files:
// features (n, 1, 28, 28) and targets (n, 1), splits train and test.
// cfg.Dtype selects uint8 (default), bool (thresholded at 128, stored
// as 0/1) or float32 (scaled to [0, 1]); non-default dtypes change the
// default output name to mnist_<dtype>.hdf5.
func ConvertMNIST(cfg Config) ([]string, error) {
	if err := checkExists(cfg.Directory, "mnist", mnistFiles); err != nil {
		return nil, err
	}

	dtype := cfg.Dtype
	if dtype == "" {
		dtype = "uint8"
	}
	defaultName := "mnist.hdf5"
	if dtype != "uint8" {
		defaultName = "mnist_" + dtype + ".hdf5"
	}

	log.WithFields(log.Fields{"directory": cfg.Directory, "dtype": dtype}).
		Info("Converting MNIST")

	trainFeatures, err := ReadMNISTImages(filepath.Join(cfg.Directory, mnistFiles[0]), dtype)
	if err != nil {
		return nil, err
	}
	trainTargets, err := ReadMNISTLabels(filepath.Join(cfg.Directory, mnistFiles[1]))
	if err != nil {
		return nil, err
	}
	testFeatures, err := ReadMNISTImages(filepath.Join(cfg.Directory, mnistFiles[2]), dtype)
	if err != nil {
		return nil, err
	}
	testTargets, err := ReadMNISTLabels(filepath.Join(cfg.Directory, mnistFiles[3]))
	if err != nil {
		return nil, err
	}

	parts := []SplitData{
		{Split: "train", Source: "features", Data: trainFeatures},
		{Split: "train", Source: "targets", Data: trainTargets},
		{Split: "test", Source: "features", Data: testFeatures},
		{Split: "test", Source: "targets", Data: testTargets},
	}
	labels := map[string][]string{
		"features": {"batch", "channel", "height", "width"},
		"targets":  {"batch", "index"},
	}
	return writeContainer(cfg, defaultName, parts, labels)
}

// ReadMNISTImages parses a gzipped IDX image file into an array shaped
// (n, 1, rows, cols). dtype is uint8, bool or float32.
func ReadMNISTImages(path, dtype string) (*datasets.Array, error) {
	switch dtype {
	case "uint8", "bool", "float32":
	default:
		return nil, errors.Errorf("unsupported mnist dtype %q", dtype)
	}

	r, closeAll, err := openGzip(path)
	if err != nil {
		return nil, err
	}
	defer closeAll()

	var header struct {
		Magic, Count, Rows, Cols int32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, errors.Wrapf(err, "read IDX header of %s", path)
	}
	if header.Magic != mnistImageMagic {
		return nil, errors.Errorf("%s: wrong magic %d, expected %d",
			path, header.Magic, mnistImageMagic)
	}

	n, rows, cols := int(header.Count), int(header.Rows), int(header.Cols)
	raw := make([]uint8, n*rows*cols)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, errors.Wrapf(err, "read %d images from %s", n, path)
	}

	shape := []int{n, 1, rows, cols}
	switch dtype {
	case "float32":
		arr := datasets.NewArray(datasets.Float32, shape...)
		for i, v := range raw {
			arr.Float32s[i] = float32(v) / 255
		}
		return arr, nil
	case "bool":
		arr := datasets.NewArray(datasets.Uint8, shape...)
		for i, v := range raw {
			if v >= 128 {
				arr.Uint8s[i] = 1
			}
		}
		return arr, nil
	default:
		arr := datasets.NewArray(datasets.Uint8, shape...)
		copy(arr.Uint8s, raw)
		return arr, nil
	}
}

// ReadMNISTLabels parses a gzipped IDX label file into a uint8 array
// shaped (n, 1).
func ReadMNISTLabels(path string) (*datasets.Array, error) {
	r, closeAll, err := openGzip(path)
	if err != nil {
		return nil, err
	}
	defer closeAll()

	var header struct {
		Magic, Count int32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, errors.Wrapf(err, "read IDX header of %s", path)
	}
	if header.Magic != mnistLabelMagic {
		return nil, errors.Errorf("%s: wrong magic %d, expected %d",
			path, header.Magic, mnistLabelMagic)
	}

	n := int(header.Count)
	arr := datasets.NewArray(datasets.Uint8, n, 1)
	if _, err := io.ReadFull(r, arr.Uint8s); err != nil {
		return nil, errors.Wrapf(err, "read %d labels from %s", n, path)
	}
	return arr, nil
}

func openGzip(path string) (io.Reader, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open %s", path)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, errors.Wrapf(err, "decompress %s", path)
	}
	return gz, func() {
		gz.Close()
		f.Close()
	}, nil
}
