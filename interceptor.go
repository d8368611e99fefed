package usher

import (
	"fmt"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
)

// ClaimsKey is the request value under which AuthInterceptor stores
// the verified token claims.
const ClaimsKey = "auth_claims"

// EchoInterceptor traces action entry and exit. Useful during
// development to watch the chain run.
type EchoInterceptor struct {
	Prefix string
	Log    *zap.Logger
}

func (e *EchoInterceptor) Intercept(ar *ActionRequest, next func() (any, error)) (any, error) {
	log := e.Log
	if log == nil {
		log = ar.Logger()
	}
	prefix := e.Prefix
	if prefix == "" {
		prefix = "echo"
	}
	log.Info(prefix+" ---> enter",
		zap.String("path", ar.R.URL.Path),
		zap.String("action", ar.Config.TargetType.String()+"."+ar.Config.MethodName))
	value, err := next()
	if err != nil {
		log.Info(prefix+" <--- failed", zap.Error(err))
		return value, err
	}
	log.Info(prefix+" <--- done", zap.String("result", fmt.Sprintf("%v", value)))
	return value, err
}

// AuthInterceptor verifies a bearer token signed with an HMAC secret
// and exposes its claims to the action via ClaimsKey. Requests
// without a valid token never reach the target method.
type AuthInterceptor struct {
	Secret string
	Header string
}

func (a *AuthInterceptor) Intercept(ar *ActionRequest, next func() (any, error)) (any, error) {
	header := a.Header
	if header == "" {
		header = "Authorization"
	}
	raw := ar.R.Header.Get(header)
	if !strings.HasPrefix(raw, "Bearer ") {
		return nil, Unauthorized("missing bearer token")
	}
	token, err := jwt.Parse(strings.TrimPrefix(raw, "Bearer "), func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(a.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, Unauthorized("invalid token")
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		ar.Set(ClaimsKey, claims)
	}
	return next()
}

// SignToken issues an HS256 token for the given claims. The example
// app and tests use it to mint credentials AuthInterceptor accepts.
func SignToken(secret string, claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Claims pulls the verified claims out of the request, if an
// AuthInterceptor ran earlier in the chain.
func Claims(ar *ActionRequest) (jwt.MapClaims, bool) {
	v, ok := ar.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(jwt.MapClaims)
	return claims, ok
}
