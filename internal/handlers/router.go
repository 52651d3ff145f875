package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Kampayn/kampayn-be/internal/handlers/middleware"
	"github.com/Kampayn/kampayn-be/internal/handlers/render"
	"github.com/Kampayn/kampayn-be/internal/logger"
	"github.com/Kampayn/kampayn-be/internal/models"
	"github.com/Kampayn/kampayn-be/internal/service/auth"
	"github.com/Kampayn/kampayn-be/internal/service/campaign"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	userService userService,
	campaignService campaignService,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.AuthMiddleware(authService)

	authMux := http.NewServeMux()
	authMux.Handle("POST /register", handleRegister(authService, logger))
	authMux.Handle("POST /login", handleLogin(authService, logger))
	authMux.Handle("POST /google", handleSocialLogin(authService, logger))
	authMux.Handle("POST /refresh-token", handleRefreshToken(authService, logger))
	authMux.Handle("POST /logout", handleLogout(authService, logger))

	root := http.NewServeMux()
	root.Handle("GET /{$}", handleWelcome())
	root.Handle("/auth/", http.StripPrefix("/auth", authMux))

	root.Handle("GET /users/me", withAuth(handleUserMe(userService, logger)))
	root.Handle("GET /users/{id}", withAuth(handleUserByID(userService, logger)))
	root.Handle("POST /users/complete-profile", withAuth(handleCompleteProfile(userService, logger)))

	root.Handle("POST /campaigns", withAuth(handleCreateCampaign(campaignService, logger)))
	root.Handle("GET /campaigns", withAuth(handleListCampaigns(campaignService, logger)))
	root.Handle("GET /campaigns/my", withAuth(handleListMyCampaigns(campaignService, logger)))
	root.Handle("GET /campaigns/{id}", withAuth(handleGetCampaign(campaignService, logger)))
	root.Handle("PUT /campaigns/{id}", withAuth(handleUpdateCampaign(campaignService, logger)))
	root.Handle("DELETE /campaigns/{id}", withAuth(handleDeleteCampaign(campaignService, logger)))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

func handleWelcome() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		render.Success(w, http.StatusOK, "Welcome to Kampayn API", nil)
	}
}

type authService interface {
	// Has to return apperrors.ErrEmailAlreadyUsed if email is taken
	Register(ctx context.Context, in auth.RegisterInput) (models.User, error)

	// Every credentials failure has to be apperrors.ErrInvalidCredentials
	Login(ctx context.Context, in auth.LoginInput, meta models.ClientMeta) (auth.Session, error)
	SocialLogin(ctx context.Context, idToken string, meta models.ClientMeta) (auth.Session, error)

	// Rotate refresh token
	// Reused token: apperrors.ErrRefreshTokenInvalidated, expired one: apperrors.ErrRefreshTokenExpired
	Refresh(ctx context.Context, refresh string, meta models.ClientMeta) (models.TokenPair, error)
	Logout(ctx context.Context, refresh string) error

	VerifyAccess(access string) (models.AccessClaims, error)
}

type userService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (models.UserWithProfile, error)
	CompleteProfile(ctx context.Context, userID uuid.UUID, profile models.Profile) (models.UserWithProfile, error)
}

type campaignService interface {
	Create(ctx context.Context, callerID uuid.UUID, c models.Campaign) (models.Campaign, error)
	Get(ctx context.Context, callerID uuid.UUID, id uuid.UUID) (campaign.View, error)
	List(ctx context.Context, filter models.CampaignFilter) (models.CampaignPage, error)
	ListMine(ctx context.Context, callerID uuid.UUID, filter models.CampaignFilter) (models.CampaignPage, error)
	Update(ctx context.Context, callerID uuid.UUID, id uuid.UUID, patch models.CampaignPatch) (models.Campaign, error)
	Delete(ctx context.Context, callerID uuid.UUID, id uuid.UUID) error
}
