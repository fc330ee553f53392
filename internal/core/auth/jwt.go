package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims 登录时签发：身份字段 + 标准时间/受众/签发方
type Claims struct {
	Email string `json:"email"`
	ID    uint   `json:"id"`
	jwt.RegisteredClaims
}

// 拒绝原因（对外稳定）
const (
	ReasonMalformed        = "malformed"
	ReasonSignatureInvalid = "signature_invalid"
	ReasonExpired          = "expired"
	ReasonNotYetValid      = "not_yet_valid"
	ReasonAudienceInvalid  = "audience_invalid"
	ReasonIssuerInvalid    = "issuer_invalid"
	ReasonAlgorithmInvalid = "algorithm_invalid"
	ReasonInvalid          = "invalid"
)

type TokenError struct {
	Reason string
	Err    error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return "token " + e.Reason + ": " + e.Err.Error()
	}
	return "token " + e.Reason
}

func (e *TokenError) Unwrap() error { return e.Err }

type JWTer struct {
	Secret    []byte
	Issuer    string
	Audience  string
	Algorithm string        // HS256 / HS384 / HS512
	TTL       time.Duration // expiresIn
	NotBefore time.Duration
	Leeway    time.Duration
	Now       func() time.Time // 测试注入，默认 time.Now
}

func (j *JWTer) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

func (j *JWTer) method() (jwt.SigningMethod, error) {
	alg := j.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	m, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}
	return m, nil
}

func (j *JWTer) Issue(email string, id uint) (string, error) {
	m, err := j.method()
	if err != nil {
		return "", err
	}
	now := j.now()
	claims := Claims{
		Email: email,
		ID:    id,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(j.NotBefore)),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	}
	if j.Audience != "" {
		claims.Audience = jwt.ClaimStrings{j.Audience}
	}
	return jwt.NewWithClaims(m, claims).SignedString(j.Secret)
}

// Parse 校验签名、算法、时间窗口、aud/iss；失败时返回 *TokenError，不会返回半信任的 claims
func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	m, err := j.method()
	if err != nil {
		return nil, err
	}
	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(j.Leeway),
		jwt.WithTimeFunc(j.now),
	}
	if j.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.Issuer))
	}
	if j.Audience != "" {
		opts = append(opts, jwt.WithAudience(j.Audience))
	}

	t, err := jwt.ParseWithClaims(strings.TrimSpace(tokenStr), &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != m.Alg() {
			return nil, fmt.Errorf("unexpected alg %q", token.Method.Alg())
		}
		return j.Secret, nil
	}, opts...)
	if err != nil {
		return nil, &TokenError{Reason: reasonOf(err), Err: err}
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, &TokenError{Reason: ReasonInvalid}
}

func reasonOf(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ReasonMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ReasonSignatureInvalid
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonAlgorithmInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ReasonNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ReasonAudienceInvalid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ReasonIssuerInvalid
	}
	return ReasonInvalid
}
