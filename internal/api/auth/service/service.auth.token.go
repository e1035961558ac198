// Package authsvc ký và kiểm tra JWT (HMAC) của người dùng, dựng Actor từ claims.
package authsvc

import (
	"errors"
	"fmt"
	"time"

	authmodels "soug_elwahah/internal/api/auth/models"
	"soug_elwahah/internal/common"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Claims là payload JWT: sub = userId (hex)
type Claims struct {
	Roles      []string `json:"roles"`
	ActiveRole string   `json:"activeRole,omitempty"`
	jwt.RegisteredClaims
}

// TokenService ký và kiểm tra token bằng một secret dùng chung
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService tạo TokenService; secret rỗng là lỗi cấu hình
func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty")
	}
	return &TokenService{secret: []byte(secret), issuer: "soug_elwahah"}, nil
}

// Issue ký token cho user với tập vai trò
func (s *TokenService) Issue(userID primitive.ObjectID, roles authmodels.RoleSet, activeRole authmodels.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Roles:      roles.Strings(),
		ActiveRole: string(activeRole),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse kiểm tra token và dựng Actor.
// overrideRole (header X-Active-Role) được ưu tiên hơn activeRole trong token.
func (s *TokenService) Parse(token string, overrideRole string) (authmodels.Actor, error) {
	if token == "" {
		return authmodels.Actor{}, common.ErrTokenMissing
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return authmodels.Actor{}, common.ErrTokenExpired
		}
		return authmodels.Actor{}, common.ErrTokenInvalid
	}
	if !parsed.Valid {
		return authmodels.Actor{}, common.ErrTokenInvalid
	}

	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return authmodels.Actor{}, common.ErrTokenInvalid
	}
	roles := make([]authmodels.Role, 0, len(claims.Roles))
	for _, r := range claims.Roles {
		roles = append(roles, authmodels.Role(r))
	}

	requested := authmodels.Role(claims.ActiveRole)
	if overrideRole != "" {
		requested = authmodels.Role(overrideRole)
	}
	return authmodels.NewActor(userID, authmodels.NewRoleSet(roles...), requested)
}
