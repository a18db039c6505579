// Package auth issues and checks the bearer tokens of the HTTP API and
// hashes user passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/cleared-dev/estatement/internal/config"
)

// DefaultRole is given to users configured without one.
const DefaultRole = "ROLE_USER"

const issuerName = "estatement"

var (
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrBadCredentials = errors.New("invalid username or password")
	ErrNoSecret       = errors.New("auth.jwt_secret is not configured")
)

// Claims are the JWT claims carried by an access token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and validates HS256 access tokens.
type Issuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, expiry time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if expiry <= 0 {
		return nil, fmt.Errorf("token expiry must be positive, got %s", expiry)
	}
	return &Issuer{secret: []byte(secret), expiry: expiry, now: time.Now}, nil
}

// Issue returns a signed token for username and its expiry time.
func (i *Issuer) Issue(username, role string) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.expiry)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, exp, nil
}

// Validate parses token and returns its claims. Any failure wraps ErrInvalidToken.
func (i *Issuer) Validate(token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// placeholderHash is compared against for unknown usernames.
var placeholderHash = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3dk8Zr8xY5QO8Zr7rE5v6nS")

// Authenticate finds username among users and checks its password.
func Authenticate(users []config.User, username, password string) (config.User, error) {
	for _, u := range users {
		if u.Username != username {
			continue
		}
		if !CheckPassword(u.PasswordHash, password) {
			return config.User{}, ErrBadCredentials
		}
		if u.Role == "" {
			u.Role = DefaultRole
		}
		return u, nil
	}
	_ = bcrypt.CompareHashAndPassword(placeholderHash, []byte(password))
	return config.User{}, ErrBadCredentials
}

// Token is a bearer token held by a client session.
type Token string

// Token returns t. It lets a Token stand in as session credentials.
func (t Token) Token() string { return string(t) }
