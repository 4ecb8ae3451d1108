package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pesa/pkg/domain"
	dErrors "pesa/pkg/domain-errors"
)

// TokenService issues and validates the HS256 bearer tokens that gate the
// API. Claims carry the account id (sub), the role, and a jti so individual
// tokens are traceable in the audit trail.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewTokenService(signingKey []byte, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenService{
		signingKey: signingKey,
		ttl:        ttl,
		now:        time.Now,
	}
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue mints a token for the account.
func (s *TokenService) Issue(accountID domain.AccountID, role domain.Role) (string, error) {
	now := s.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a bearer token and returns the identity it
// carries. Satisfies middleware.TokenValidator.
func (s *TokenService) Validate(tokenString string) (domain.AccountID, domain.Role, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return domain.AccountID{}, "", dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}

	accountID, err := domain.ParseAccountID(c.Subject)
	if err != nil {
		return domain.AccountID{}, "", dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	role, err := domain.ParseRole(c.Role)
	if err != nil {
		return domain.AccountID{}, "", dErrors.New(dErrors.CodeUnauthorized, "invalid token role")
	}
	return accountID, role, nil
}
