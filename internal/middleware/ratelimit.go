package middleware

import (
	"net/http"

	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/taskdeck/taskdeck-api/internal/request"
)

const defaultRatelimitRate = "20-S"

// RateLimit returns per-client-IP rate limiting middleware backed by
// ulule/limiter's in-memory store. The rate uses limiter's formatted syntax,
// e.g. "20-S" for 20 requests per second.
//
// The service is single-process by construction (one store mutex over one
// data file), so a process-local counter store is sufficient.
func RateLimit(rateStr string) (func(http.Handler) http.Handler, error) {
	if rateStr == "" {
		rateStr = defaultRatelimitRate
	}
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		return nil, err
	}

	instance := limiter.New(memory.NewStore(), rate)
	keyGetter := func(r *http.Request) string {
		return request.ClientIP(r)
	}
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(keyGetter))
	return mw.Handler, nil
}
