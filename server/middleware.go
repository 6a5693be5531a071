package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/giygas/smartpharmacy-api/handlers"
	"github.com/giygas/smartpharmacy-api/logging"
	"github.com/giygas/smartpharmacy-api/metrics"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/juju/ratelimit"
)

// maxRequestIDLen bounds client supplied request ids
const maxRequestIDLen = 128

// RequestIDMiddleware keeps the caller's X-Request-ID or generates a UUID,
// stores it where middleware.GetReqID finds it and echoes it on the response
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(middleware.RequestIDHeader))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RealIPMiddleware sets RemoteAddr from X-Forwarded-For or X-Real-IP
func RealIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// Take the first IP from the comma-separated list
			if idx := strings.Index(xff, ","); idx != -1 {
				xff = xff[:idx]
			}
			r.RemoteAddr = strings.TrimSpace(xff)
		} else if xrip := strings.TrimSpace(r.Header.Get("X-Real-IP")); xrip != "" {
			r.RemoteAddr = xrip
		}
		next.ServeHTTP(w, r)
	})
}

// RequestSizeMiddleware rejects oversized headers and bodies. Bodies without
// a Content-Length are capped while being read.
func RequestSizeMiddleware(maxBody, maxHeader int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBody {
				logging.Warn("Request body too large",
					"content_length", r.ContentLength,
					"max_allowed", maxBody,
					"remote_addr", r.RemoteAddr,
				)
				handlers.RespondWithError(w, r, http.StatusRequestEntityTooLarge, handlers.CodePayloadTooLarge,
					fmt.Sprintf("Request body too large. Maximum allowed size is %d bytes", maxBody), nil)
				return
			}

			// Rough estimate
			headerSize := int64(0)
			for key, values := range r.Header {
				headerSize += int64(len(key))
				for _, value := range values {
					headerSize += int64(len(value))
				}
			}
			if headerSize > maxHeader {
				logging.Warn("Request headers too large",
					"header_size", headerSize,
					"max_allowed", maxHeader,
					"remote_addr", r.RemoteAddr,
				)
				handlers.RespondWithError(w, r, http.StatusRequestHeaderFieldsTooLarge, handlers.CodePayloadTooLarge,
					fmt.Sprintf("Request headers too large. Maximum allowed size is %d bytes", maxHeader), nil)
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBody)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// tokenCosts are the bucket tokens taken per route. AI backed routes cost
// the most.
var tokenCosts = map[string]int64{
	"/metrics":                   0,
	"/health":                    5,
	"/v1/pharmacies":             5,
	"/v1/search":                 20,
	"/v1/interactions/check":     10,
	"/v1/allergy/check":          10,
	"/v1/prescriptions/validate": 50,
	"/v1/orders/reserve":         50,
	"/v1/inventory/forecast":     10,
	"/v1/chat":                   100,
	"/v1/ocr":                    200,
}

const (
	orderLookupCost = 10
	defaultCost     = 20
)

func getTokenCost(r *http.Request) int64 {
	path := r.URL.Path
	if cost, ok := tokenCosts[path]; ok {
		return cost
	}
	if strings.HasPrefix(path, "/v1/orders/") {
		return orderLookupCost
	}
	return defaultCost
}

// RateLimiter holds one token bucket per client address
type RateLimiter struct {
	rate     float64
	capacity int64

	mu      sync.RWMutex
	clients map[string]*ratelimit.Bucket

	stopOnce sync.Once
	stop     chan struct{}
}

// NewRateLimiter creates a limiter refilling rate tokens per second up to capacity
func NewRateLimiter(rate float64, capacity int64) *RateLimiter {
	return &RateLimiter{
		rate:     rate,
		capacity: capacity,
		clients:  make(map[string]*ratelimit.Bucket),
		stop:     make(chan struct{}),
	}
}

func (rl *RateLimiter) getBucket(clientIP string) *ratelimit.Bucket {
	rl.mu.RLock()
	bucket, exists := rl.clients[clientIP]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		if bucket, exists = rl.clients[clientIP]; !exists {
			bucket = ratelimit.NewBucketWithRate(rl.rate, rl.capacity)
			rl.clients[clientIP] = bucket
			metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
		}
		rl.mu.Unlock()
	}

	return bucket
}

// StartCleanup drops buckets that refilled completely every interval until Stop
func (rl *RateLimiter) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-rl.stop:
				return
			case <-ticker.C:
				rl.cleanup()
			}
		}
	}()
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, bucket := range rl.clients {
		if bucket.Available() == bucket.Capacity() {
			delete(rl.clients, ip)
		}
	}
	metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
}

// Stop ends the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Middleware rejects requests once the client's bucket cannot cover the route cost
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	limit := strconv.FormatInt(rl.capacity, 10)
	rate := strconv.FormatFloat(rl.rate, 'f', -1, 64)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := r.RemoteAddr
		if host, _, err := net.SplitHostPort(clientIP); err == nil {
			clientIP = host
		}

		bucket := rl.getBucket(clientIP)
		tokenCost := getTokenCost(r)

		w.Header().Set("X-RateLimit-Limit", limit)
		w.Header().Set("X-RateLimit-Rate", rate)

		if bucket.TakeAvailable(tokenCost) < tokenCost {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "60")
			logging.Warn("Rate limit exceeded", "client", clientIP, "path", r.URL.Path, "cost", tokenCost)
			handlers.RespondWithError(w, r, http.StatusTooManyRequests, handlers.CodeRateLimited,
				"Rate limit exceeded. Please try again later.", nil)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))
		next.ServeHTTP(w, r)
	})
}
