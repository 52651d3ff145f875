package middleware

import (
	"net/http"
	"strings"

	"github.com/Kampayn/kampayn-be/internal/handlers/render"
	"github.com/Kampayn/kampayn-be/internal/handlers/userctx"
	"github.com/Kampayn/kampayn-be/internal/models"
)

type authService interface {
	VerifyAccess(access string) (models.AccessClaims, error)
}

// AuthMiddleware requires valid bearer access token
// Every failure is answered the same way
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r)
			if !ok {
				render.Fail(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			caller, err := as.VerifyAccess(token)
			if err != nil {
				render.Fail(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := userctx.New(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
