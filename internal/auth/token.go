package auth

import (
	stderrors "errors"

	"time"

	"github.com/golang-jwt/jwt/v5"

	"account-ledger/internal/errors"
)

// Claims is the signed token payload.
type Claims struct {
	AccountID string `json:"accountId"`
	Name      string `json:"name"`
	jwt.RegisteredClaims
}

// Identity is the resolved owner of a validated token.
type Identity struct {
	AccountNumber string
	Name          string
}

// TokenService issues and validates stateless HS256 session tokens. Validity
// is fully determined by the token's signed claims plus current time; there
// is no server-side revocation list.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue returns a token bound to the account, expiring ttl from now.
func (s *TokenService) Issue(accountNumber, name string) (string, error) {
	now := time.Now()
	claims := Claims{
		AccountID: accountNumber,
		Name:      name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.NewAppError(errors.InternalError, "failed to sign token").WithDetails(err.Error())
	}
	return signed, nil
}

// Validate parses and verifies a token, returning the identity it carries.
func (s *TokenService) Validate(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))

	if err != nil {
		switch {
		case stderrors.Is(err, jwt.ErrTokenExpired):
			return nil, errors.ErrTokenExpired
		case stderrors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, errors.ErrTokenMalformed.WithDetails("signature verification failed")
		default:
			return nil, errors.ErrTokenMalformed
		}
	}
	if !token.Valid {
		return nil, errors.ErrTokenMalformed
	}

	return &Identity{
		AccountNumber: claims.AccountID,
		Name:          claims.Name,
	}, nil
}
