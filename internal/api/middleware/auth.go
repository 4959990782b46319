package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/polarischronos/polarischronos/internal/api/models"
)

// Admin guards the admin mutation endpoint (cache purge) with an
// HS256 bearer token. The engine has no end users to authenticate; this is
// operator access only.
func Admin(signingKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := GetRequestID(r.Context())

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				models.NewUnauthorized(traceID, "missing bearer token").Write(w)
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(signingKey), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				models.NewUnauthorized(traceID, "invalid bearer token").Write(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
