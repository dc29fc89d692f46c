package gate

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTicketTTL bounds how long the login form stays available after a
// successful PIN entry.
const DefaultTicketTTL = 5 * time.Minute

const (
	ticketIssuer   = "spardha"
	ticketAudience = "admin-login"
)

// ErrInvalidTicket is returned for missing, forged or expired gate tickets.
var ErrInvalidTicket = errors.New("invalid gate ticket")

// Tickets issues and checks signed proofs that a visitor passed the gate.
// A ticket is embedded in the login form and never stored server side.
type Tickets struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTickets returns a ticket issuer signing with secret.
func NewTickets(secret []byte, ttl time.Duration) *Tickets {
	if ttl <= 0 {
		ttl = DefaultTicketTTL
	}
	return &Tickets{secret: secret, ttl: ttl, now: time.Now}
}

// Issue returns a new ticket.
func (t *Tickets) Issue() (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    ticketIssuer,
		Audience:  jwt.ClaimStrings{ticketAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Check returns ErrInvalidTicket unless token is a current ticket.
func (t *Tickets) Check(token string) error {
	if token == "" {
		return ErrInvalidTicket
	}
	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ticketIssuer),
		jwt.WithAudience(ticketAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return ErrInvalidTicket
	}
	return nil
}
