package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pribylovaa/webthreads/internal/storage"
)

// errVersionMismatch — условная запись не совпала по version, документ надо перечитать.
var errVersionMismatch = errors.New("version mismatch")

const (
	retryInitialInterval = 5 * time.Millisecond
	retryMaxInterval     = 200 * time.Millisecond
)

// newRetryPolicy — экспоненциальная пауза с джиттером, не более attempts попыток.
func newRetryPolicy(ctx context.Context, attempts int) backoff.BackOffContext {
	if attempts <= 0 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.RandomizationFactor = 0.5
	b.Multiplier = 2
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// retryOnConflict повторяет fn, пока она возвращает errVersionMismatch.
// Любая другая ошибка прекращает повторы; исчерпанные попытки — storage.ErrConflict.
func (m *Mongo) retryOnConflict(ctx context.Context, fn func() error) error {
	err := backoff.Retry(func() error {
		err := fn()
		if err == nil || errors.Is(err, errVersionMismatch) {
			return err
		}
		return backoff.Permanent(err)
	}, newRetryPolicy(ctx, m.cfg.Limits.UpdateRetries))

	if errors.Is(err, errVersionMismatch) {
		return storage.ErrConflict
	}
	return err
}
