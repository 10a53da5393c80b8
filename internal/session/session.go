// Package session remembers which user is logged in. The stored value is
// an HS256 token whose subject is the user id.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"anoa.com/linkbio/internal/entity"
	userRepo "anoa.com/linkbio/internal/modules/user/repository"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const CookieName = "session"

var ErrNoSession = errors.New("no session")

type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	users  userRepo.UserRepository
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration, secure bool, users userRepo.UserRepository) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		users:  users,
		now:    time.Now,
	}
}

// Issue signs a session token for userID.
func (m *Manager) Issue(userID uuid.UUID) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse validates token and returns the user id it carries.
func (m *Manager) Parse(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return "", ErrNoSession
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrNoSession
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", ErrNoSession
	}
	return claims.Subject, nil
}

// Set persists token in the session cookie.
func (m *Manager) Set(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(m.now()).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, maxAge, "/", "", m.secure, true)
}

// Get reads the user id from the bearer header, the session cookie or,
// for WebSocket upgrades, the token query parameter.
func (m *Manager) Get(c *gin.Context) (string, bool) {
	token := ""
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
	}
	if token == "" {
		if cookie, err := c.Cookie(CookieName); err == nil {
			token = cookie
		}
	}
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		return "", false
	}

	userID, err := m.Parse(token)
	if err != nil {
		return "", false
	}
	return userID, true
}

func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", m.secure, true)
}

// CurrentUser re-fetches the session's user. A missing record or a failed
// fetch both mean nobody is logged in.
func (m *Manager) CurrentUser(c *gin.Context) (*entity.User, bool) {
	userID, ok := m.Get(c)
	if !ok {
		return nil, false
	}

	user, err := m.users.FindByID(c.Request.Context(), userID)
	if err != nil || user == nil {
		return nil, false
	}
	return user, true
}
