package converters

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/pkg/errors"

	"github.com/udibr/fuel/datasets"
)

const irisFile = "iris.data"

// irisClasses maps UCI class names to target values, in file order.
var irisClasses = map[string]uint8{
	"Iris-setosa":     0,
	"Iris-versicolor": 1,
	"Iris-virginica":  2,
}

// ConvertIris builds iris.hdf5 from the UCI iris.data CSV: features
// (150, 4) float32 and targets (150, 1) uint8, in a single "all" split.
func ConvertIris(cfg Config) ([]string, error) {
	if err := checkExists(cfg.Directory, "iris", []string{irisFile}); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"directory": cfg.Directory}).Info("Converting iris")

	features, targets, err := ReadIris(filepath.Join(cfg.Directory, irisFile))
	if err != nil {
		return nil, err
	}

	parts := []SplitData{
		{Split: "all", Source: "features", Data: features},
		{Split: "all", Source: "targets", Data: targets},
	}
	labels := map[string][]string{
		"features": {"batch", "feature"},
		"targets":  {"batch", "index"},
	}
	return writeContainer(cfg, "iris.hdf5", parts, labels)
}

// ReadIris parses the UCI iris CSV into features (n, 4) float32 and
// targets (n, 1) uint8.
func ReadIris(path string) (*datasets.Array, *datasets.Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var (
		values  []float32
		classes []uint8
	)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read %s", path)
	}
	for i, record := range records {
		if len(record) == 1 && record[0] == "" {
			continue // trailing blank line in the UCI file
		}
		if len(record) != 5 {
			return nil, nil, errors.Errorf("%s: row %d has %d fields, expected 5",
				path, i, len(record))
		}
		for j := 0; j < 4; j++ {
			v, err := strconv.ParseFloat(record[j], 32)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "%s: row %d column %d", path, i, j)
			}
			values = append(values, float32(v))
		}
		class, ok := irisClasses[record[4]]
		if !ok {
			return nil, nil, errors.Errorf("%s: row %d has unknown class %q",
				path, i, record[4])
		}
		classes = append(classes, class)
	}

	n := len(classes)
	features := datasets.NewArray(datasets.Float32, n, 4)
	copy(features.Float32s, values)
	targets := datasets.NewArray(datasets.Uint8, n, 1)
	copy(targets.Uint8s, classes)
	return features, targets, nil
}
