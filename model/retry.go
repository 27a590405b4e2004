package model

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryOptions configures the retry decorator returned by WithRetry.
type RetryOptions struct {
	// MaxRetries bounds the number of re-attempts after the first failure.
	MaxRetries uint64
	// InitialInterval is the first backoff delay; subsequent delays grow
	// exponentially up to MaxInterval.
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// WithRetry wraps a Model so transient Generate failures are retried with
// exponential backoff. A generation is only retried while nothing has been
// emitted downstream; once any chunk reached the consumer a subsequent error
// is permanent since replaying would duplicate output.
func WithRetry(m Model, optFns ...func(o *RetryOptions)) Model {
	opts := RetryOptions{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &retryModel{model: m, opts: opts}
}

type retryModel struct {
	model Model
	opts  RetryOptions
}

// Generate implements Model with retry semantics around the wrapped model.
func (r *retryModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		attempt := func() error {
			respCh, innerErrCh := r.model.Generate(ctx, req)

			emitted := false
			var genErr error
			for respCh != nil || innerErrCh != nil {
				select {
				case <-ctx.Done():
					return backoff.Permanent(ctx.Err())
				case resp, ok := <-respCh:
					if !ok {
						respCh = nil
						continue
					}
					select {
					case <-ctx.Done():
						return backoff.Permanent(ctx.Err())
					case out <- resp:
						emitted = true
					}
				case err, ok := <-innerErrCh:
					if !ok {
						innerErrCh = nil
						continue
					}
					if err != nil {
						genErr = err
					}
				}
			}

			if genErr != nil {
				if emitted {
					return backoff.Permanent(genErr)
				}
				return genErr
			}
			return nil
		}

		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = r.opts.InitialInterval
		bo.MaxInterval = r.opts.MaxInterval

		policy := backoff.WithContext(backoff.WithMaxRetries(bo, r.opts.MaxRetries), ctx)
		if err := backoff.Retry(attempt, policy); err != nil {
			errCh <- err
		}
	}()

	return out, errCh
}

// Info returns the wrapped model's metadata.
func (r *retryModel) Info() Info { return r.model.Info() }
