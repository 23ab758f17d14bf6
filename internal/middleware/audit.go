package middleware

import (
	"net/http"

	logpkg "github.com/taskdeck/taskdeck-api/internal/logger"
	"github.com/taskdeck/taskdeck-api/internal/request"
	"go.uber.org/zap"
)

// Audit logs security-relevant responses (rejections and rate-limit hits)
// for monitoring.
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &auditResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			statusCode := wrapped.statusCode
			if statusCode == http.StatusForbidden || statusCode == http.StatusRequestEntityTooLarge {
				logger.Warn("security_event",
					zap.Int("status_code", statusCode),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
				)
			}

			if statusCode == http.StatusTooManyRequests {
				logger.Warn("rate_limit_violation",
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
				)
			}
		})
	}
}

type auditResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (aw *auditResponseWriter) WriteHeader(code int) {
	aw.statusCode = code
	aw.ResponseWriter.WriteHeader(code)
}
