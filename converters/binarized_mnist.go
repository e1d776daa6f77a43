package converters

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/pkg/errors"

	"github.com/udibr/fuel/datasets"
)

const amatRowSize = 784 // 28 x 28 pixels per row

var binarizedMNISTFiles = []string{
	"binarized_mnist_train.amat",
	"binarized_mnist_valid.amat",
	"binarized_mnist_test.amat",
}

// ConvertBinarizedMNIST builds binarized_mnist.hdf5 from the three
// .amat text files of the Larochelle binarization: one features source
// shaped (n, 1, 28, 28) uint8 with train, valid and test splits.
func ConvertBinarizedMNIST(cfg Config) ([]string, error) {
	if err := checkExists(cfg.Directory, "binarized_mnist", binarizedMNISTFiles); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"directory": cfg.Directory}).
		Info("Converting binarized MNIST")

	splits := []string{"train", "valid", "test"}
	var parts []SplitData
	for i, split := range splits {
		arr, err := ReadAmat(filepath.Join(cfg.Directory, binarizedMNISTFiles[i]))
		if err != nil {
			return nil, err
		}
		parts = append(parts, SplitData{Split: split, Source: "features", Data: arr})
	}

	labels := map[string][]string{
		"features": {"batch", "channel", "height", "width"},
	}
	return writeContainer(cfg, "binarized_mnist.hdf5", parts, labels)
}

// ReadAmat parses a whitespace-separated .amat file of 784 binary
// values per row into a uint8 array shaped (n, 1, 28, 28).
func ReadAmat(path string) (*datasets.Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var rows [][]uint8
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != amatRowSize {
			return nil, errors.Errorf("%s: row %d has %d values, expected %d",
				path, len(rows), len(fields), amatRowSize)
		}
		row := make([]uint8, amatRowSize)
		for j, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: row %d column %d", path, len(rows), j)
			}
			if v != 0 {
				row[j] = 1
			}
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	arr := datasets.NewArray(datasets.Uint8, len(rows), 1, 28, 28)
	for i, row := range rows {
		copy(arr.Uint8s[i*amatRowSize:], row)
	}
	return arr, nil
}
