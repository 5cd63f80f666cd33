package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksred/pageturn-api/internal/auth"
	"github.com/ksred/pageturn-api/internal/types"
	"github.com/ksred/pageturn-api/pkg/response"
	"golang.org/x/time/rate"
)

const actorKey = "actor"

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	visitors = make(map[string]*visitor)
	mu       sync.Mutex

	// Configure limits per endpoint type
	paymentLimit = rate.Limit(30.0 / 60.0)   // 30 requests per minute
	writeLimit   = rate.Limit(60.0 / 60.0)   // 60 requests per minute
	browseLimit  = rate.Limit(1000.0 / 60.0) // 1000 requests per minute
)

// Cleanup old visitors periodically
func init() {
	go cleanupVisitors()
}

func limitFor(method, path string) (rate.Limit, int) {
	switch {
	case strings.HasPrefix(path, "/api/payments"):
		return paymentLimit, 5
	case method != "GET":
		return writeLimit, 5
	case strings.HasPrefix(path, "/api/books"):
		return browseLimit, 20
	default:
		return rate.Inf, 1
	}
}

func getLimiter(method, path, clientID string) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	key := clientID + ":" + method + ":" + path
	v, exists := visitors[key]

	if !exists {
		limit, burst := limitFor(method, path)
		v = &visitor{
			limiter: rate.NewLimiter(limit, burst),
		}
		visitors[key] = v
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func cleanupVisitors() {
	for {
		time.Sleep(time.Minute)

		mu.Lock()
		for key, v := range visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(visitors, key)
			}
		}
		mu.Unlock()
	}
}

// RateLimit throttles per caller and route. Runs after JWTAuth so the user id keys the bucket.
func RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.ClientIP()
		if actor, ok := CurrentActor(c); ok {
			clientID = actor.ID
		}

		limiter := getLimiter(c.Request.Method, c.FullPath(), clientID)
		if !limiter.Allow() {
			response.TooManyRequests(c, "Rate limit exceeded. Please try again later.")
			c.Abort()
			return
		}

		c.Next()
	}
}

// JWTAuth validates the bearer token and stores the caller as a types.Actor
func JWTAuth(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || !strings.EqualFold(bearerToken[0], "bearer") {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(bearerToken[1])
		if err != nil {
			response.Unauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		c.Set(actorKey, claims.Actor())
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			response.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}
		if !actor.IsAdmin() {
			response.Forbidden(c, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentActor returns the caller set by JWTAuth
func CurrentActor(c *gin.Context) (types.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return types.Actor{}, false
	}
	actor, ok := v.(types.Actor)
	return actor, ok
}
