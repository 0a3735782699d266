package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// StoreScope 是存取原始紀錄 API 需要的 scope
const StoreScope = "bids:raw"

type StoreClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// IssueStoreToken 簽發存取原始紀錄 API 的 token，給其他實例的 --store-token 使用
func IssueStoreToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := StoreClaims{
		Scope: StoreScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ParseAndValidateJWT(tokenString string, secret []byte) (*StoreClaims, error) {
	const op = "ParseAndValidateJWT"
	token, err := jwt.ParseWithClaims(tokenString, &StoreClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*StoreClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: token claims are invalid", op)
	}
	if claims.Scope != StoreScope {
		return nil, fmt.Errorf("%s: %w", op, errors.New("missing scope "+StoreScope))
	}
	return claims, nil
}

// StoreAuthMiddleware 未設定 secret 時不檢查
func (impl *ServerImpl) StoreAuthMiddleware() gin.HandlerFunc {
	secret := []byte(impl.config.Auth.StoreSecret)
	return func(c *gin.Context) {
		if len(secret) == 0 {
			c.Next()
			return
		}
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Message: "missing bearer token"})
			return
		}
		claims, err := ParseAndValidateJWT(tokenString, secret)
		if err != nil {
			impl.logger.Warn("Reject store request", slog.Any("error", err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Message: "invalid token"})
			return
		}
		c.Set("subject", claims.Subject)
		c.Next()
	}
}
