package services

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const (
	SessionCookie   = "coord_session"
	EventCookie     = "coord_event"
	MainCoordCookie = "main_coord"
)

var ErrNoSecret = errors.New("session secret is not configured")

// SessionReader extracts coordinator claims from request cookies. With a
// secret it trusts only the signed coord_session token; without one it
// reads the plain coord_event and main_coord cookies.
type SessionReader struct {
	secret []byte
	now    func() time.Time
}

func NewSessionReader(secret string) *SessionReader {
	r := &SessionReader{now: time.Now}
	if secret != "" {
		r.secret = []byte(secret)
	}
	return r
}

func (r *SessionReader) Signed() bool { return len(r.secret) > 0 }

func (r *SessionReader) Read(req *http.Request) Caller {
	if !r.Signed() {
		return readPlainCookies(req)
	}

	cookie, err := req.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return Caller{}
	}
	caller, err := r.Parse(cookie.Value)
	if err != nil {
		log.Debug().Err(err).Msg("rejected coordinator session")
		return Caller{}
	}
	return caller
}

// Parse validates a session token and returns its claims.
func (r *SessionReader) Parse(token string) (Caller, error) {
	if !r.Signed() {
		return Caller{}, ErrNoSecret
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(r.now))
	if err != nil {
		return Caller{}, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return Caller{}, jwt.ErrTokenInvalidClaims
	}

	eventID, _ := claims[EventCookie].(string)
	mainCoord, _ := claims[MainCoordCookie].(bool)
	return Caller{EventID: eventID, MainCoordinator: mainCoord}, nil
}

// Issue signs a session token for caller valid for ttl.
func (r *SessionReader) Issue(caller Caller, ttl time.Duration) (string, error) {
	if !r.Signed() {
		return "", ErrNoSecret
	}

	now := r.now()
	claims := jwt.MapClaims{
		EventCookie:     caller.EventID,
		MainCoordCookie: caller.MainCoordinator,
		"iat":           now.Unix(),
		"exp":           now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

func readPlainCookies(req *http.Request) Caller {
	var caller Caller
	if c, err := req.Cookie(EventCookie); err == nil {
		caller.EventID = c.Value
	}
	if c, err := req.Cookie(MainCoordCookie); err == nil {
		caller.MainCoordinator = c.Value == "true"
	}
	return caller
}
