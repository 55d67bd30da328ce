// Package httputil provides HTTP helpers for retrieving docbook parts.
//
// # Retry
//
// [Retry] repeats an operation under a [Policy]. Only errors wrapped in
// [RetryableError] are retried, so callers decide what counts as transient.
// For downloads that is a failed request, a truncated body or a status for
// which [TransientStatus] holds:
//
//	err := httputil.Retry(ctx, httputil.Policy{
//	    Attempts: 3,
//	    Delay:    time.Second,
//	    MaxDelay: 10 * time.Second,
//	    OnRetry: func(attempt int, wait time.Duration, err error) {
//	        logger.Warn("retrying download", "attempt", attempt, "wait", wait, "error", err)
//	    },
//	}, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Transient(err)
//	    }
//	    ...
//	})
package httputil
