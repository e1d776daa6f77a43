// Package downloaders fetches the raw distribution files of the
// built-in datasets over HTTP.
package downloaders

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

// Spec names the remote files of one dataset and where they land
// locally. URLs and Filenames are parallel slices.
type Spec struct {
	URLs      []string
	Filenames []string
}

// All maps built-in dataset names to their download specs.
var All = map[string]Spec{
	"mnist": {
		URLs: []string{
			"http://yann.lecun.com/exdb/mnist/train-images-idx3-ubyte.gz",
			"http://yann.lecun.com/exdb/mnist/train-labels-idx1-ubyte.gz",
			"http://yann.lecun.com/exdb/mnist/t10k-images-idx3-ubyte.gz",
			"http://yann.lecun.com/exdb/mnist/t10k-labels-idx1-ubyte.gz",
		},
		Filenames: []string{
			"train-images-idx3-ubyte.gz",
			"train-labels-idx1-ubyte.gz",
			"t10k-images-idx3-ubyte.gz",
			"t10k-labels-idx1-ubyte.gz",
		},
	},
	"binarized_mnist": {
		URLs: []string{
			"http://www.cs.toronto.edu/~larocheh/public/datasets/binarized_mnist/binarized_mnist_train.amat",
			"http://www.cs.toronto.edu/~larocheh/public/datasets/binarized_mnist/binarized_mnist_valid.amat",
			"http://www.cs.toronto.edu/~larocheh/public/datasets/binarized_mnist/binarized_mnist_test.amat",
		},
		Filenames: []string{
			"binarized_mnist_train.amat",
			"binarized_mnist_valid.amat",
			"binarized_mnist_test.amat",
		},
	},
	"iris": {
		URLs: []string{
			"https://archive.ics.uci.edu/ml/machine-learning-databases/iris/iris.data",
		},
		Filenames: []string{"iris.data"},
	},
}

const progressInterval = 5 << 20 // log every 5 MiB

// Download fetches every file of a spec into directory. Existing files
// are skipped unless clobber is set. Each file is streamed to a
// uniquely-named temp file and renamed into place once complete, so an
// interrupted download never leaves a truncated target behind.
func Download(ctx context.Context, spec Spec, directory string, clobber bool) error {
	if len(spec.URLs) != len(spec.Filenames) {
		return errors.Errorf("spec has %d urls but %d filenames",
			len(spec.URLs), len(spec.Filenames))
	}

	client := retryablehttp.NewClient()
	client.Logger = nil

	for i, url := range spec.URLs {
		target := filepath.Join(directory, spec.Filenames[i])
		if _, err := os.Stat(target); err == nil && !clobber {
			log.WithFields(log.Fields{"file": target}).Info("Already downloaded, skipping")
			continue
		}
		if err := downloadFile(ctx, client, url, target); err != nil {
			return err
		}
	}
	return nil
}

func downloadFile(ctx context.Context, client *retryablehttp.Client, url, target string) error {
	req, err := retryablehttp.NewRequest("GET", url, nil)
	if err != nil {
		return errors.Wrapf(err, "build request for %s", url)
	}
	req = req.WithContext(ctx)

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "download %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return errors.Errorf("download %s: status %s", url, resp.Status)
	}

	tmp := filepath.Join(filepath.Dir(target),
		fmt.Sprintf(".%s.%s.part", filepath.Base(target), uuid.NewString()))
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "create %s", tmp)
	}

	log.WithFields(log.Fields{"url": url, "bytes": resp.ContentLength}).Info("Downloading")

	pw := &progressWriter{name: filepath.Base(target), total: resp.ContentLength}
	_, err = io.Copy(io.MultiWriter(f, pw), resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "write %s", target)
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "rename %s", target)
	}
	log.WithFields(log.Fields{"file": target, "bytes": pw.written}).Info("Downloaded")
	return nil
}

type progressWriter struct {
	name    string
	total   int64
	written int64
	lastLog int64
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.written-w.lastLog >= progressInterval {
		w.lastLog = w.written
		log.WithFields(log.Fields{
			"file": w.name, "written": w.written, "total": w.total,
		}).Info("Download progress")
	}
	return len(p), nil
}
