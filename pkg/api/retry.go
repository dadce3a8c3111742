package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

var ErrTimeout = errors.New("request timed out")

type RetryPolicy struct {
	// Attempts is the total number of tries, including the first one.
	Attempts int
	// Timeout bounds every single attempt, body read included.
	Timeout time.Duration
	// Backoff is the wait before the second attempt. It doubles afterwards.
	Backoff time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	Attempts: 3,
	Timeout:  5 * time.Second,
	Backoff:  100 * time.Millisecond,
}

// NoRetry is used for calls which must not be repeated, like paid image
// generation.
var NoRetry = RetryPolicy{Attempts: 1, Timeout: 2 * time.Minute}

type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Do sends the request built by newRequest, retrying on 5xx responses and on
// network or timeout failures. 4xx responses are returned immediately. When
// every attempt ends with 5xx the last response is returned; when the last
// attempt fails at the network level the error is returned.
//
// The returned response body is fully buffered, so it stays readable after
// the per-attempt deadline has passed.
func Do(
	ctx context.Context,
	doer Doer,
	newRequest func(ctx context.Context) (*http.Request, error),
	policy RetryPolicy,
) (*http.Response, error) {
	if policy.Attempts <= 0 {
		policy.Attempts = 1
	}

	backoff := policy.Backoff
	var lastResp *http.Response
	var lastErr error
	for attempt := 0; attempt < policy.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		resp, err := doOnce(ctx, doer, newRequest, policy.Timeout)
		if err != nil {
			var buildErr requestError
			if errors.As(err, &buildErr) {
				return nil, buildErr.err
			}

			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			lastResp, lastErr = nil, err
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			lastResp, lastErr = resp, nil
			continue
		}

		return resp, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}

	return lastResp, nil
}

type requestError struct {
	err error
}

func (e requestError) Error() string {
	return e.err.Error()
}

func doOnce(
	ctx context.Context,
	doer Doer,
	newRequest func(ctx context.Context) (*http.Request, error),
	timeout time.Duration,
) (*http.Response, error) {
	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := newRequest(attemptCtx)
	if err != nil {
		return nil, requestError{err: err}
	}

	resp, err := doer.Do(req)
	if err != nil {
		return nil, classify(attemptCtx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(attemptCtx, err)
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

func classify(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return err
}
