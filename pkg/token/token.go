package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const (
	IdentityKey = "uid"
)

var (
	ErrNotInitialized          = errors.New("token package not initialized")
	ErrUnexpectedSigningMethod = errors.New("unexpected signing method")
	ErrInvalidToken            = errors.New("invalid token")
	ErrEmployeeIDNotFound      = errors.New("employee id not found in token")
)

var (
	secret []byte
	ttl    time.Duration
	now    = time.Now
)

// Init 设置签名密钥和 access token 有效期，middleware 与 token 共用同一份密钥
func Init(signingSecret string, accessTTL time.Duration) error {
	if signingSecret == "" {
		return fmt.Errorf("token secret is empty")
	}
	if accessTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}

	secret = []byte(signingSecret)
	ttl = accessTTL
	return nil
}

// Secret returns the signing key shared with the auth middleware.
func Secret() []byte {
	return secret
}

// TTL returns the configured access token lifetime.
func TTL() time.Duration {
	return ttl
}

// GenerateAccessToken 为员工签发 access token
func GenerateAccessToken(employeeID int64) (string, time.Time, error) {
	if len(secret) == 0 {
		return "", time.Time{}, ErrNotInitialized
	}

	issuedAt := now()
	expiresAt := issuedAt.Add(ttl)

	claims := jwtv5.MapClaims{
		IdentityKey: strconv.FormatInt(employeeID, 10),
		"iat":       issuedAt.Unix(),
		"exp":       expiresAt.Unix(),
	}

	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, expiresAt, nil
}

// ParseAccessToken 校验 token 并返回员工 ID
func ParseAccessToken(tokenString string) (int64, error) {
	if len(secret) == 0 {
		return 0, ErrNotInitialized
	}

	parsed, err := jwtv5.ParseWithClaims(tokenString, jwtv5.MapClaims{}, func(t *jwtv5.Token) (interface{}, error) {
		if t.Method != jwtv5.SigningMethodHS256 {
			return nil, fmt.Errorf("%w: %v, expected HS256", ErrUnexpectedSigningMethod, t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to parse token: %w", err)
	}

	if !parsed.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwtv5.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	return EmployeeIDFromClaims(claims)
}

// EmployeeIDFromClaims reads the uid claim, which may arrive as a string or a JSON number.
func EmployeeIDFromClaims(claims map[string]interface{}) (int64, error) {
	switch v := claims[IdentityKey].(type) {
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return 0, ErrEmployeeIDNotFound
		}
		return id, nil
	case float64:
		if v <= 0 {
			return 0, ErrEmployeeIDNotFound
		}
		return int64(v), nil
	default:
		return 0, ErrEmployeeIDNotFound
	}
}
