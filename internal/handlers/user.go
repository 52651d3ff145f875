package handlers

import (
	"net/http"
	"strings"

	"github.com/Kampayn/kampayn-be/internal/handlers/render"
	"github.com/Kampayn/kampayn-be/internal/logger"
	"github.com/Kampayn/kampayn-be/internal/models"
)

func handleUserMe(us userService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFrom(r)

		u, err := us.GetProfile(r.Context(), caller.UserID)
		if err != nil {
			render.Error(w, l, err)
			return
		}

		render.Success(w, http.StatusOK, "User profile retrieved successfully", map[string]any{
			"user": newProfileView(u),
		})
	}
}

func handleUserByID(us userService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		u, err := us.GetProfile(r.Context(), id)
		if err != nil {
			render.Error(w, l, err)
			return
		}

		render.Success(w, http.StatusOK, "User profile retrieved successfully", map[string]any{
			"user": newProfileView(u),
		})
	}
}

type completeProfileRequest struct {
	Role     string     `json:"role" validate:"required,oneof=brand influencer"`
	Category stringList `json:"category" validate:"omitempty,dive,max=255"`
	PhotoURL *string    `json:"photo_url" validate:"omitempty,url"`

	Company string `json:"company" validate:"required_if=Role brand,max=255"`

	InstagramUsername       *string  `json:"instagram_username" validate:"omitempty,max=255"`
	InstagramFollowers      *int32   `json:"instagram_followers" validate:"omitempty,gte=0"`
	InstagramAvgLikes       *int32   `json:"instagram_avg_likes" validate:"omitempty,gte=0"`
	InstagramAvgComments    *int32   `json:"instagram_avg_comments" validate:"omitempty,gte=0"`
	InstagramEngagementRate *float64 `json:"instagram_engagement_rate" validate:"omitempty,gte=0"`
	FollowerTier            *string  `json:"follower_tier" validate:"omitempty,oneof=nano micro macro mega"`
	PortfolioURL            *string  `json:"portfolio_url" validate:"omitempty,url"`
}

func (req completeProfileRequest) profile() models.Profile {
	if models.Role(req.Role) == models.RoleBrand {
		p := &models.BrandProfile{Company: req.Company, PhotoURL: req.PhotoURL}
		if len(req.Category) > 0 {
			category := strings.Join(req.Category, ", ")
			p.Category = &category
		}
		return p
	}

	p := &models.InfluencerProfile{
		InstagramUsername:       req.InstagramUsername,
		PhotoURL:                req.PhotoURL,
		Categories:              req.Category,
		PortfolioURL:            req.PortfolioURL,
		InstagramFollowers:      req.InstagramFollowers,
		InstagramAvgLikes:       req.InstagramAvgLikes,
		InstagramAvgComments:    req.InstagramAvgComments,
		InstagramEngagementRate: req.InstagramEngagementRate,
	}
	if req.FollowerTier != nil {
		tier := models.FollowerTier(*req.FollowerTier)
		p.FollowerTier = &tier
	}
	return p
}

func handleCompleteProfile(us userService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFrom(r)

		data, err := render.BindAndValidate[completeProfileRequest](w, r)
		if err != nil {
			return
		}

		u, err := us.CompleteProfile(r.Context(), caller.UserID, data.profile())
		if err != nil {
			render.Error(w, l, err)
			return
		}

		render.Success(w, http.StatusCreated, "Profile completed successfully", map[string]any{
			"user": newProfileView(u),
		})
	}
}
