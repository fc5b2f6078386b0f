package pipeline

import (
	"context"
	stderrors "errors"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/taxoview/pkg/cache"
	"github.com/matzehuels/taxoview/pkg/dataset"
	"github.com/matzehuels/taxoview/pkg/errors"
)

// LoadRemote runs loader, retrying network and timeout failures with
// exponential backoff.
func LoadRemote(ctx context.Context, loader Loader, logger *log.Logger) (*dataset.Dataset, error) {
	var ds *dataset.Dataset
	attempt := 0
	err := cache.RetryWithBackoff(ctx, DefaultRetryDelay, func() error {
		attempt++
		var err error
		ds, err = loader.Load(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, errors.ErrCodeNetwork) || errors.Is(err, errors.ErrCodeTimeout) {
			if logger != nil {
				logger.Warn("remote load failed", "attempt", attempt, "error", err)
			}
			return cache.Retryable(err)
		}
		return err
	})
	if err != nil {
		return nil, unwrapRetryable(err)
	}
	return ds, nil
}

func unwrapRetryable(err error) error {
	var re *cache.RetryableError
	if stderrors.As(err, &re) {
		return re.Err
	}
	return err
}

// DatasetHash returns the content hash of ds in its canonical JSON form.
func DatasetHash(ds *dataset.Dataset) (string, error) {
	data, err := dataset.Marshal(ds, dataset.FormatJSON)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

func errEmptyDataset(source string) error {
	return errors.New(errors.ErrCodeEmptyGraph, "dataset %q has no edges", source)
}
