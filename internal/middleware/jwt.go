package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"city.newnan/mc-status/internal/config"
	"city.newnan/mc-status/internal/model"
)

// RoleAdmin 可以调用管理接口的角色
const RoleAdmin = "admin"

// JWTClaims 管理接口的JWT载荷
type JWTClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// GenerateToken 为 subject 签发管理员Token
func GenerateToken(subject string, cfg *config.Config) (string, error) {
	if cfg.JWTSecret == "" {
		return "", errors.New("未配置JWT_SECRET")
	}
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.JWTExpireTime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    cfg.JWTIssuer,
			Subject:   subject,
		},
		Role: RoleAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken 解析并校验JWT Token
func ParseToken(tokenString string, cfg *config.Config) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名方法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("无效的Token")
}

// JWTAuth 管理接口认证中间件，只接受 Bearer Token 且角色为管理员
func JWTAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse(http.StatusUnauthorized, "未授权: 缺少Token"))
			return
		}

		claims, err := ParseToken(tokenString, cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse(http.StatusUnauthorized, "未授权: "+err.Error()))
			return
		}
		if claims.Role != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, model.ErrorResponse(http.StatusForbidden, "权限不足"))
			return
		}

		c.Set("subject", claims.Subject)
		c.Next()
	}
}

// GetCurrentSubject 从上下文中获取当前调用者
func GetCurrentSubject(c *gin.Context) string {
	subject, _ := c.Get("subject")
	s, _ := subject.(string)
	return s
}
