package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dukerupert/grocer/internal/config"
)

var (
	ErrExpired        = errors.New("token has expired")
	ErrInvalid        = errors.New("invalid token")
	ErrMissingSubject = errors.New("token has no subject")
)

// MaxSubjectLength matches the width of the owner column.
const MaxSubjectLength = 100

// Authenticator verifies HMAC-signed bearer tokens issued elsewhere. The
// subject claim is the username; the optional role claim defaults to user.
type Authenticator struct {
	secret []byte
	method string
	parser *jwt.Parser
}

func NewAuthenticator(cfg config.Auth) *Authenticator {
	method := strings.ToUpper(cfg.Algorithm)
	if method == "" {
		method = jwt.SigningMethodHS256.Alg()
	}
	return &Authenticator{
		secret: []byte(cfg.Secret),
		method: method,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{method})),
	}
}

// Authenticate verifies token and returns its principal. Errors wrap one of
// ErrExpired, ErrInvalid or ErrMissingSubject.
func (a *Authenticator) Authenticate(token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrInvalid
	}

	claims := jwt.MapClaims{}
	_, err := a.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if sub == "" {
		return Principal{}, ErrMissingSubject
	}
	if utf8.RuneCountInString(sub) > MaxSubjectLength {
		return Principal{}, fmt.Errorf("%w: subject longer than %d characters", ErrInvalid, MaxSubjectLength)
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = RoleUser
	}
	return Principal{Username: sub, Role: role}, nil
}
