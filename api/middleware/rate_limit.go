package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/wholesalehub-backend/api/responses"
	pkgerrors "github.com/angelmondragon/wholesalehub-backend/pkg/errors"
	"github.com/angelmondragon/wholesalehub-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(policy, dimension, subject string) string
}

// RateLimitPolicy caps requests to one route per window. Each dimension with a
// positive limit gets its own counter.
type RateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
	userLimit  int
}

func NewRateLimitPolicy(name string, window time.Duration) RateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "default"
	}
	return RateLimitPolicy{name: name, window: window}
}

// PerIP limits requests from one client address.
func (p RateLimitPolicy) PerIP(limit int) RateLimitPolicy {
	p.ipLimit = limit
	return p
}

// PerEmail limits requests naming the same "email" in the JSON body.
func (p RateLimitPolicy) PerEmail(limit int) RateLimitPolicy {
	p.emailLimit = limit
	return p
}

// PerUser limits requests from one authenticated user. Auth must run first.
func (p RateLimitPolicy) PerUser(limit int) RateLimitPolicy {
	p.userLimit = limit
	return p
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0 || p.userLimit > 0)
}

type rateSubject struct {
	dimension string
	value     string
	limit     int
}

// RateLimit rejects requests with RATE_LIMIT_EXCEEDED once any counter of the
// policy passes its limit. A nil store disables limiting.
func RateLimit(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			subjects := make([]rateSubject, 0, 3)
			if policy.ipLimit > 0 {
				if ip := clientIP(r); ip != "" {
					subjects = append(subjects, rateSubject{dimension: "ip", value: ip, limit: policy.ipLimit})
				}
			}
			if policy.userLimit > 0 {
				if userID := UserIDFromContext(ctx); userID != "" {
					subjects = append(subjects, rateSubject{dimension: "user", value: userID, limit: policy.userLimit})
				}
			}
			if policy.emailLimit > 0 {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				if email := normalizeEmail(extractEmail(body)); email != "" {
					subjects = append(subjects, rateSubject{dimension: "email", value: hashValue(email), limit: policy.emailLimit})
				}
			}

			for _, subject := range subjects {
				count, err := store.IncrWithTTL(ctx, store.RateLimitKey(policy.name, subject.dimension, subject.value), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > int64(subject.limit) {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"policy":         policy.name,
							"scope":          subject.dimension,
							"subject":        subject.value,
							"attempts":       count,
							"limit":          subject.limit,
							"window_seconds": int(policy.window.Seconds()),
						}), "rate limit exceeded")
					}
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		first, _, _ := strings.Cut(header, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Email
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
