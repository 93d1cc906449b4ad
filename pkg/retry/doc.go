// Package retry re-runs operations that fail with transient errors.
//
// The feed fetcher retries the same cursor through Do with a predicate
// that accepts network failures and every HTTP status other than 200 and
// 400:
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//		page, err = client.FetchPage(ctx, uid, cursor)
//		return err
//	}, &retry.Config{
//		MaxAttempts: 11, // first try plus ten retries
//		Backoff:     &retry.ConstantBackoff{Delay: 2 * time.Second},
//		RetryIf:     errors.IsTransient,
//	})
//	if errors.Is(err, retry.ErrMaxAttempts) {
//		// give up on this cursor
//	}
//
// MaxAttempts of zero retries forever. Waiting between attempts honors ctx.
package retry
