package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/annoforge/annotator-api/pkg/config"
)

// ContextSessionKey is the gin context key storing the session id.
const ContextSessionKey = "sessionID"

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Session attaches a session id to every request. The id travels in a signed
// cookie; a missing or tampered cookie silently gets a fresh session rather
// than an error, so first-time visitors are never rejected.
func Session(cfg config.SessionConfig, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	secret := []byte(cfg.Secret)

	return func(c *gin.Context) {
		sessionID := ""
		if raw, err := c.Cookie(cfg.CookieName); err == nil && raw != "" {
			sessionID = parseSessionToken(raw, secret)
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
			token, err := signSessionToken(sessionID, secret, cfg.TTL)
			if err != nil {
				logger.Error("failed to sign session cookie", zap.Error(err))
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.CookieName, token, int(cfg.TTL.Seconds()), "/", "", cfg.CookieSecure, true)
		}

		c.Set(ContextSessionKey, sessionID)
		c.Next()
	}
}

func parseSessionToken(raw string, secret []byte) string {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	return claims.SessionID
}

func signSessionToken(sessionID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
