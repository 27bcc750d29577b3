// Package resilience groups the fault tolerance helpers used around
// outbound calls: circuit breakers for scraped sites and article hosts,
// and retry with warm-up and classified backoff for generation and
// fetching.
//
//	cb := circuitbreaker.New(circuitbreaker.ListPageConfig())
//	html, err := circuitbreaker.Do(cb, func() (string, error) {
//	    return fetch(ctx, url)
//	})
//
//	err := retry.WithBackoff(ctx, retry.WebScraperConfig(), func() error {
//	    return performOperation()
//	})
package resilience
