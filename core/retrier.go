package core

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/smarty/deliver/contracts"
)

// Retrier runs an operation up to maxRetry additional times while it keeps
// failing with a retryable error, sleeping 1s, 2s, 4s... in between.
type Retrier struct {
	maxRetry int
	sleep    func(duration time.Duration)
	logger   zerolog.Logger
}

func NewRetrier(maxRetry int, sleep func(duration time.Duration), logger zerolog.Logger) *Retrier {
	return &Retrier{maxRetry: maxRetry, sleep: sleep, logger: logger}
}

func (this *Retrier) Do(title string, operation func() error) (err error) {
	delays := newDownloadBackOff()
	for x := 0; x <= this.maxRetry; x++ {
		err = operation()
		if err == nil {
			return nil
		}
		if !contracts.IsRetryable(err) {
			return err
		}
		if x < this.maxRetry {
			delay := delays.NextBackOff()
			this.logger.Warn().Err(err).
				Str("file", title).
				Int("attempt", x+1).
				Dur("delay", delay).
				Msg("attempt failed, retry imminent")
			this.sleep(delay)
		}
	}
	return err
}

// RetryUploader retries failed uploads on the same schedule as downloads.
type RetryUploader struct {
	inner   contracts.Uploader
	retrier *Retrier
}

func NewRetryUploader(inner contracts.Uploader, retrier *Retrier) *RetryUploader {
	return &RetryUploader{inner: inner, retrier: retrier}
}

func (this *RetryUploader) Upload(ctx context.Context, request contracts.UploadRequest) error {
	return this.retrier.Do(request.RemoteAddress.Path, func() error {
		return this.inner.Upload(ctx, request)
	})
}

func newDownloadBackOff() backoff.BackOff {
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(time.Second),
		backoff.WithRandomizationFactor(0),
		backoff.WithMultiplier(2),
		backoff.WithMaxInterval(time.Minute),
		backoff.WithMaxElapsedTime(0),
	)
}
