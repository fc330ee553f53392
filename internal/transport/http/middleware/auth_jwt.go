package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"user-auth-api/internal/core/auth"
	"user-auth-api/internal/domain"
	resp "user-auth-api/internal/transport/http/response"
)

const KeyClaims = "claims"

type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// TokenFromHeader 原服务直接把 Authorization 整个值当 token；带 "Bearer " 前缀也接受
func TokenFromHeader(c *gin.Context) string {
	ah := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(ah) > 7 && strings.EqualFold(ah[:7], "Bearer ") {
		return strings.TrimSpace(ah[7:])
	}
	return ah
}

// AuthJWT 校验通过后把 *auth.Claims 放到 c.Set(KeyClaims)
func AuthJWT(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := v.Validate(TokenFromHeader(c))
		if err != nil {
			if errors.Is(err, domain.ErrTokenRequired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Fail(resp.MsgTokenRequired))
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Fail(resp.MsgTokenInvalid).WithData(rejection(err)))
			return
		}
		c.Set(KeyClaims, claims)
		c.Next()
	}
}

type rejectionInfo struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func rejection(err error) rejectionInfo {
	var te *auth.TokenError
	if errors.As(err, &te) {
		msg := te.Reason
		if te.Err != nil {
			msg = te.Err.Error()
		}
		return rejectionInfo{Reason: te.Reason, Message: msg}
	}
	return rejectionInfo{Reason: auth.ReasonInvalid, Message: auth.ReasonInvalid}
}
