package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"forkful/internal/clock"
)

const DefaultTokenTTL = 30 * time.Minute

var signingMethods = map[string]jwt.SigningMethod{
	jwt.SigningMethodHS256.Alg(): jwt.SigningMethodHS256,
	jwt.SigningMethodHS384.Alg(): jwt.SigningMethodHS384,
	jwt.SigningMethodHS512.Alg(): jwt.SigningMethodHS512,
}

// TokenManager issues and validates signed access tokens. Its fields are set once at
// construction and only read afterwards.
type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	clock  clock.Clock
}

func NewTokenManager(secret, algorithm string, ttl time.Duration, clk clock.Clock) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	method, ok := signingMethods[algorithm]
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}

	return &TokenManager{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
		clock:  clk,
	}, nil
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a copy of claims with exp set to now+TTL. Caller supplied exp and iat are overwritten.
func (m *TokenManager) Issue(claims map[string]any) (string, error) {
	token, _, err := m.issue(claims)
	return token, err
}

// issue also returns the exp written into the token, truncated to whole seconds.
func (m *TokenManager) issue(claims map[string]any) (string, time.Time, error) {
	now := m.clock.Now().UTC()
	expiresAt := now.Add(m.ttl).Truncate(time.Second)

	mapClaims := make(jwt.MapClaims, len(claims)+2)
	for key, value := range claims {
		mapClaims[key] = value
	}
	mapClaims["iat"] = now.Unix()
	mapClaims["exp"] = expiresAt.Unix()

	encoded, err := jwt.NewWithClaims(m.method, mapClaims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign jwt: %w", err)
	}

	incrementAccessTokensIssued()
	return encoded, expiresAt, nil
}

// Decode verifies the token and returns its subject.
func (m *TokenManager) Decode(tokenString string) (string, error) {
	claims, err := m.parse(tokenString, jwt.WithExpirationRequired())
	if err != nil {
		incrementTokenValidationsFailed()
		return "", err
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		incrementTokenValidationsFailed()
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return subject, nil
}

// IsExpired is true when the token cannot be verified, carries no exp, or exp has passed.
// Invalid and expired tokens are deliberately reported the same way.
func (m *TokenManager) IsExpired(tokenString string) bool {
	claims, err := m.parse(tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}

	return !m.clock.Now().Before(exp.Time)
}

// IsMalformed is true only when the token fails to parse or its signature does not verify.
func (m *TokenManager) IsMalformed(tokenString string) bool {
	_, err := m.parse(tokenString, jwt.WithoutClaimsValidation())
	return err != nil
}

func (m *TokenManager) parse(tokenString string, options ...jwt.ParserOption) (jwt.MapClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	parserOptions := append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithTimeFunc(m.clock.Now),
	}, options...)

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, parserOptions...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
