package httpserver

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"imchat/internal/domain"
)

// SendLimiter decides whether one more send is allowed for key.
type SendLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// SendRateLimit throttles sends per authenticated user. Limiter failures are
// logged and the request goes through.
func SendRateLimit(limiter SendLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			ok, err := limiter.Allow(r.Context(), "send:"+strconv.FormatInt(user.ID, 10))
			if err != nil {
				log.Printf("send rate limiter unavailable, allowing user %d: %v", user.ID, err)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				writeError(w, r, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
