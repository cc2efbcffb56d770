package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hongminglow/bank-customer-api/internal/authz"
	"github.com/hongminglow/bank-customer-api/internal/models"
)

// DefaultTokenTTL is the fixed lifetime of a session token.
const DefaultTokenTTL = 24 * time.Hour

const (
	claimUserID     = "userId"
	claimEmail      = "email"
	claimName       = "name"
	claimKind       = "kind"
	claimRole       = "role"
	claimPermission = "permission"
	bankClaimPrefix = "bank_"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// TokenManager issues and parses HS256 session tokens.
type TokenManager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewTokenManager creates a manager with the provided secret, issuer, audience
// and lifetime. A non-positive ttl selects DefaultTokenTTL.
func NewTokenManager(secret, issuer, audience string, ttl time.Duration) (*TokenManager, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{
		secret:   []byte(trimmed),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
	}, nil
}

// Issue signs a token for user carrying one role claim per resolved role, a
// bank_<id> claim per bank-scoped role and every permission of every role.
func (t *TokenManager) Issue(user models.User, roles []models.ResolvedRole, now time.Time) (string, time.Time, error) {
	// NumericDate claims carry whole seconds; the returned expiry must match.
	now = now.Truncate(time.Second)
	expiresAt := now.Add(t.ttl)

	roleNames := make([]string, 0, len(roles))
	permissions := make([]string, 0)
	claims := jwt.MapClaims{
		"iss":       t.issuer,
		"aud":       t.audience,
		"sub":       strconv.FormatInt(user.ID, 10),
		"iat":       now.Unix(),
		"nbf":       now.Unix(),
		"exp":       expiresAt.Unix(),
		claimUserID: strconv.FormatInt(user.ID, 10),
		claimEmail:  user.Email,
		claimName:   user.DisplayName(),
		claimKind:   user.Kind.String(),
	}
	for _, role := range roles {
		roleNames = append(roleNames, role.RoleName)
		if role.BankID != nil {
			claims[fmt.Sprintf("%s%d", bankClaimPrefix, *role.BankID)] = role.RoleName
		}
		permissions = append(permissions, role.Permissions...)
	}
	claims[claimRole] = roleNames
	claims[claimPermission] = permissions

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies signature, issuer, audience and lifetime of tokenString at
// now, with no clock leeway, and decodes its claims.
func (t *TokenManager) Parse(tokenString string, now time.Time) (*authz.Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	mapClaims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(tokenString, mapClaims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return decodeClaims(mapClaims)
}

func decodeClaims(mc jwt.MapClaims) (*authz.Claims, error) {
	rawID, _ := mc[claimUserID].(string)
	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s claim", ErrInvalidToken, claimUserID)
	}

	claims := &authz.Claims{
		UserID:      userID,
		Email:       stringClaim(mc, claimEmail),
		Name:        stringClaim(mc, claimName),
		Kind:        stringClaim(mc, claimKind),
		Roles:       stringsClaim(mc, claimRole),
		Permissions: stringsClaim(mc, claimPermission),
		BankRoles:   map[int64]string{},
	}
	for key, value := range mc {
		if !strings.HasPrefix(key, bankClaimPrefix) {
			continue
		}
		bankID, err := strconv.ParseInt(strings.TrimPrefix(key, bankClaimPrefix), 10, 64)
		if err != nil {
			continue
		}
		if role, ok := value.(string); ok {
			claims.BankRoles[bankID] = role
		}
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

func stringClaim(mc jwt.MapClaims, key string) string {
	s, _ := mc[key].(string)
	return s
}

// stringsClaim accepts both a JSON array and a single string, since other
// issuers emit a lone value as a scalar.
func stringsClaim(mc jwt.MapClaims, key string) []string {
	switch v := mc[key].(type) {
	case string:
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
