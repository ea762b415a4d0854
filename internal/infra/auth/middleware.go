package auth

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// TokenValidator — контракт проверки токена для защищенного периметра.
type TokenValidator interface {
	VerifyToken(tokenStr string) (*OperatorClaims, error)
}

type ctxKey string

// CtxOperator — ключ контекста с логином оператора.
const CtxOperator ctxKey = "operator"

func NewMiddleware(v TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := v.VerifyToken(authHeader)
			if err != nil {
				logger.Warn("auth failure", zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), CtxOperator, claims.Operator)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
