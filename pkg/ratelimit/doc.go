// Package ratelimit paces outgoing requests.
//
// Interval spaces request starts a fixed duration apart and paces feed
// pagination. TokenBucket allows a number of requests per period and
// optionally throttles media downloads.
//
//	limiter := ratelimit.NewInterval(2 * time.Second)
//	for {
//	    if err := limiter.Wait(ctx); err != nil {
//	        return err // cancelled
//	    }
//	    // issue request
//	}
package ratelimit
