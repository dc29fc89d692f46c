package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/spardhafest/spardha/internal/model"
)

const issuer = "spardha"

var (
	// ErrMalformed is returned for content that does not decode to a session
	// signed with the current secret.
	ErrMalformed = errors.New("malformed session")
	// ErrExpired is returned for a session older than the configured max age.
	ErrExpired = errors.New("session expired")
)

// Codec turns sessions into signed text blobs and back. A max age of zero
// disables expiry.
type Codec struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewCodec returns a Codec signing with secret.
func NewCodec(secret []byte, maxAge time.Duration) *Codec {
	return &Codec{secret: secret, maxAge: maxAge, now: time.Now}
}

// MaxAge returns the configured session lifetime.
func (c *Codec) MaxAge() time.Duration { return c.maxAge }

type sessionClaims struct {
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	jwt.RegisteredClaims
}

// Encode signs sess.
func (c *Codec) Encode(sess *model.AdminSession) (string, error) {
	issued := sess.IssuedAt
	if issued.IsZero() {
		issued = c.now()
	}
	claims := sessionClaims{
		Email:     sess.Email,
		FullName:  sess.FullName,
		Role:      sess.Role,
		IsActive:  sess.IsActive,
		LastLogin: sess.LastLogin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  sess.ID,
			Issuer:   issuer,
			IssuedAt: jwt.NewNumericDate(issued),
		},
	}
	if c.maxAge > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(issued.Add(c.maxAge))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies blob and returns the session it carries.
func (c *Codec) Decode(blob string) (*model.AdminSession, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(blob, claims,
		func(*jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrMalformed
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, ErrMalformed
	}

	issued := claims.IssuedAt.Time
	// A max age lowered after issuance still applies.
	if c.maxAge > 0 && c.now().After(issued.Add(c.maxAge)) {
		return nil, ErrExpired
	}

	return &model.AdminSession{
		ID:        claims.Subject,
		Email:     claims.Email,
		FullName:  claims.FullName,
		Role:      claims.Role,
		IsActive:  claims.IsActive,
		LastLogin: claims.LastLogin,
		IssuedAt:  issued,
	}, nil
}
