package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const CookieName = "rwa_session"

// Session is one request's view of its server-side state.
type Session struct {
	ID   string
	Data Data
}

type Options struct {
	Secret   string
	TTL      time.Duration
	Secure   bool
	SameSite http.SameSite
}

// Manager binds a Store to a signed cookie. The cookie carries only an HS256
// token whose subject is the session id; the data stays server side.
type Manager struct {
	store Store
	opts  Options
	log   *zap.Logger
	now   func() time.Time
}

func NewManager(store Store, opts Options, log *zap.Logger) (*Manager, error) {
	if opts.Secret == "" {
		return nil, errors.New("session secret is required")
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.SameSite == 0 {
		opts.SameSite = http.SameSiteLaxMode
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, opts: opts, log: log, now: time.Now}, nil
}

func ParseSameSite(s string) http.SameSite {
	switch s {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// Load returns the caller's session, or a fresh empty one when the cookie is
// absent, forged, expired or points at nothing.
func (m *Manager) Load(r *http.Request) *Session {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return &Session{}
	}

	id, err := m.parseToken(c.Value)
	if err != nil {
		m.log.Debug("session cookie rejected", zap.Error(err))
		return &Session{}
	}

	data, err := m.store.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.Warn("session store read failed", zap.Error(err))
		}
		return &Session{}
	}
	return &Session{ID: id, Data: data}
}

// Save persists s and refreshes the cookie. An empty session without an id
// writes nothing.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, s *Session) error {
	if s.ID == "" {
		if s.Data.Empty() {
			return nil
		}
		s.ID = uuid.NewString()
	}

	if err := m.store.Set(r.Context(), s.ID, s.Data, m.opts.TTL); err != nil {
		return err
	}

	token, err := m.signToken(s.ID)
	if err != nil {
		return err
	}
	http.SetCookie(w, m.cookie(token, int(m.opts.TTL.Seconds())))
	return nil
}

func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request, s *Session) error {
	http.SetCookie(w, m.cookie("", -1))
	if s == nil || s.ID == "" {
		return nil
	}
	err := m.store.Delete(r.Context(), s.ID)
	s.ID = ""
	s.Data = Data{}
	return err
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: m.opts.SameSite,
	}
}

func (m *Manager) signToken(id string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.opts.TTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.opts.Secret))
}

func (m *Manager) parseToken(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(m.opts.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", fmt.Errorf("parse session token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid session token")
	}
	return claims.Subject, nil
}
