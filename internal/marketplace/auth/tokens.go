package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/thewillhuang/middleman/internal/models"
)

// Claims carried by marketplace access tokens.
type Claims struct {
	PersonID string `json:"person_id"`
	IsClient bool   `json:"is_client"`
	jwt.StandardClaims
}

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	signingKey []byte
	issuer     string
	audience   string
	ttl        time.Duration
	now        func() time.Time
}

// NewTokenManager validates the settings and builds a manager.
func NewTokenManager(signingKey, issuer, audience string, ttl time.Duration) (*TokenManager, error) {
	if signingKey == "" {
		return nil, errors.New("empty signing key")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &TokenManager{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		ttl:        ttl,
		now:        time.Now,
	}, nil
}

// Issue signs a token for person.
func (m *TokenManager) Issue(person models.Person) (string, error) {
	now := m.now()
	claims := Claims{
		PersonID: person.ID,
		IsClient: person.IsClient,
		StandardClaims: jwt.StandardClaims{
			Subject:   person.ID,
			Issuer:    m.issuer,
			Audience:  m.audience,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(m.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.signingKey)
}

// Parse verifies signature, expiry, issuer and audience.
func (m *TokenManager) Parse(accessToken string) (Claims, error) {
	claims := Claims{}
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	token, err := parser.ParseWithClaims(accessToken, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.signingKey, nil
	})
	if err != nil {
		return Claims{}, err
	}
	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if !claims.VerifyExpiresAt(m.now().Unix(), true) {
		return Claims{}, errors.New("token expired")
	}
	if m.issuer != "" && !claims.VerifyIssuer(m.issuer, true) {
		return Claims{}, errors.New("unexpected issuer")
	}
	if m.audience != "" && !claims.VerifyAudience(m.audience, true) {
		return Claims{}, errors.New("unexpected audience")
	}
	if claims.PersonID == "" {
		return Claims{}, errors.New("token has no subject")
	}
	return claims, nil
}

// Resolve turns a bearer credential into a caller. Anything that fails
// verification resolves to the anonymous caller.
func (m *TokenManager) Resolve(credential string) Caller {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Caller{}
	}
	claims, err := m.Parse(credential)
	if err != nil {
		return Caller{}
	}
	return Caller{PersonID: claims.PersonID, IsClient: claims.IsClient}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
