package handlers

import (
	"net/http"

	"github.com/Kampayn/kampayn-be/internal/handlers/render"
	"github.com/Kampayn/kampayn-be/internal/logger"
	"github.com/Kampayn/kampayn-be/internal/service/auth"
)

func handleRegister(as authService, l logger.Logger) http.HandlerFunc {
	type registerRequest struct {
		Name     string `json:"name" validate:"required,min=3,max=100"`
		Email    string `json:"email" validate:"required,email,max=255"`
		Password string `json:"password" validate:"required,min=6,max=128"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[registerRequest](w, r)
		if err != nil {
			return
		}

		user, err := as.Register(r.Context(), auth.RegisterInput{
			Name:     data.Name,
			Email:    data.Email,
			Password: data.Password,
		})
		if err != nil {
			render.Error(w, l, err)
			return
		}

		render.Success(w, http.StatusCreated, "User registered successfully", map[string]any{
			"user": newUserView(user),
		})
	}
}

func handleLogin(as authService, l logger.Logger) http.HandlerFunc {
	type loginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
		IDToken  string `json:"idToken"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[loginRequest](w, r)
		if err != nil {
			return
		}

		session, err := as.Login(r.Context(), auth.LoginInput{
			Email:    data.Email,
			Password: data.Password,
			IDToken:  data.IDToken,
		}, clientMeta(r))
		if err != nil {
			render.Error(w, l, err)
			return
		}

		render.Success(w, http.StatusOK, "Login successful", sessionView{
			User:       newUserView(session.User),
			tokensView: newTokensView(session.Tokens),
		})
	}
}

func handleSocialLogin(as authService, l logger.Logger) http.HandlerFunc {
	type socialLoginRequest struct {
		IDToken string `json:"idToken" validate:"required"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[socialLoginRequest](w, r)
		if err != nil {
			return
		}

		session, err := as.SocialLogin(r.Context(), data.IDToken, clientMeta(r))
		if err != nil {
			render.Error(w, l, err)
			return
		}

		render.Success(w, http.StatusOK, "Login successful", sessionView{
			User:       newUserView(session.User),
			tokensView: newTokensView(session.Tokens),
		})
	}
}

// Empty token is rejected by the service with its own message
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func handleRefreshToken(as authService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[refreshRequest](w, r)
		if err != nil {
			return
		}

		pair, err := as.Refresh(r.Context(), data.RefreshToken, clientMeta(r))
		if err != nil {
			render.Error(w, l, err)
			return
		}

		render.Success(w, http.StatusOK, "Token refreshed successfully", newTokensView(pair))
	}
}

func handleLogout(as authService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[refreshRequest](w, r)
		if err != nil {
			return
		}

		if err := as.Logout(r.Context(), data.RefreshToken); err != nil {
			render.Error(w, l, err)
			return
		}

		render.Success(w, http.StatusOK, "Logged out successfully", nil)
	}
}
