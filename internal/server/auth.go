package server

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const sessionTTL = 24 * time.Hour

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// login exchanges the server password for a session token.
func (s *Server) login(c *gin.Context) {
	if s.cfg.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authentication is not enabled on this server"})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.cfg.Password)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid password"})
		return
	}
	s.authLimiter.RecordSuccess(c.ClientIP())

	now := time.Now()
	expiresAt := now.Add(sessionTTL)
	claims := jwt.RegisteredClaims{
		Issuer:    "webstrike",
		Subject:   "operator",
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}

// authRequired guards the API when a password is configured. Tokens are
// accepted from the Authorization header or, for websocket clients that
// cannot set headers, a token query parameter.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.Password == "" {
			c.Next()
			return
		}

		raw := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			raw = strings.TrimPrefix(h, "Bearer ")
		} else {
			raw = c.Query("token")
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing token, authenticate via POST /api/auth/login",
			})
			return
		}

		token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Next()
	}
}

// AuthRateLimiter slows down password guessing against the login
// endpoint with per-IP progressive blocks.
type AuthRateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*authAttempt
}

type authAttempt struct {
	count        int
	firstAttempt time.Time
	blockedUntil time.Time
}

func NewAuthRateLimiter() *AuthRateLimiter {
	l := &AuthRateLimiter{attempts: make(map[string]*authAttempt)}
	go l.cleanup()
	return l
}

func (l *AuthRateLimiter) cleanup() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for ip, a := range l.attempts {
			expired := !a.blockedUntil.IsZero() && now.After(a.blockedUntil)
			stale := a.blockedUntil.IsZero() && now.Sub(a.firstAttempt) > time.Hour
			if expired || stale {
				delete(l.attempts, ip)
			}
		}
		l.mu.Unlock()
	}
}

// Allow reports whether ip may attempt a login and, when blocked, how
// long the block lasts.
func (l *AuthRateLimiter) Allow(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	a, ok := l.attempts[ip]
	if !ok {
		l.attempts[ip] = &authAttempt{count: 1, firstAttempt: now}
		return true, 0
	}

	if !a.blockedUntil.IsZero() {
		if now.Before(a.blockedUntil) {
			return false, a.blockedUntil.Sub(now)
		}
		a.count = 1
		a.firstAttempt = now
		a.blockedUntil = time.Time{}
		return true, 0
	}

	if now.Sub(a.firstAttempt) > 15*time.Minute {
		a.count = 1
		a.firstAttempt = now
		return true, 0
	}

	a.count++
	var block time.Duration
	switch {
	case a.count >= 15:
		block = 24 * time.Hour
	case a.count >= 10:
		block = 30 * time.Minute
	case a.count >= 5:
		block = 5 * time.Minute
	default:
		return true, 0
	}
	a.blockedUntil = now.Add(block)
	return false, block
}

// RecordSuccess clears the counter after a successful login.
func (l *AuthRateLimiter) RecordSuccess(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, ip)
}

// Middleware rejects login attempts from blocked addresses.
func (l *AuthRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining := l.Allow(c.ClientIP())
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":           "too many login attempts",
				"retry_after_sec": int(remaining.Seconds()),
			})
			return
		}
		c.Next()
	}
}
