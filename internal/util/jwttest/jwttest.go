// Package jwttest 为测试签发令牌，线上令牌由用户服务签发
package jwttest

import (
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/util"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sign ttl 为负时得到已过期的令牌
func Sign(userID uint, role model.UserRole, secret string, ttl time.Duration) (string, error) {
	claims := &util.Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
