package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie is the cookie carrying the dashboard session token.
const SessionCookie = "dashboard_session"

// SessionClaims is the JWT claims structure for a dashboard session.
// There are no users: the whole dashboard sits behind one shared
// password, so a valid signature is the only thing a session asserts.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// SessionMiddleware mints and validates the session tokens issued
// after a successful shared-password login.
type SessionMiddleware struct {
	password   string
	secret     []byte
	sessionTTL time.Duration
}

// NewSessionMiddleware creates a session middleware
func NewSessionMiddleware(password, secret string, sessionTTL time.Duration) *SessionMiddleware {
	return &SessionMiddleware{
		password:   password,
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
	}
}

// CheckPassword compares a login attempt against the shared password in
// constant time.
func (m *SessionMiddleware) CheckPassword(attempt string) bool {
	return subtle.ConstantTimeCompare([]byte(attempt), []byte(m.password)) == 1
}

// IssueToken mints a signed session token.
func (m *SessionMiddleware) IssueToken(now time.Time) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "shinobi-dashboard",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.sessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// SessionTTL returns the configured session lifetime.
func (m *SessionMiddleware) SessionTTL() time.Duration {
	return m.sessionTTL
}

// Authenticate validates the session cookie and aborts with 401 when it
// is missing, malformed, or expired.
func (m *SessionMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(SessionCookie)
		if err != nil || tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "Missing session"})
			c.Abort()
			return
		}

		claims := &SessionClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "Invalid session"})
			c.Abort()
			return
		}

		c.Next()
	}
}
