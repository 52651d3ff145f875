package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Kampayn/kampayn-be/internal/handlers/render"
	"github.com/Kampayn/kampayn-be/internal/handlers/userctx"
	"github.com/Kampayn/kampayn-be/internal/models"
)

// Header with optional client device description stored with refresh token
const DeviceHeader = "X-Device-Info"

// Column sizes of client metadata stored with refresh token
const (
	maxIPLen        = 45
	maxUserAgentLen = 255
	maxDeviceLen    = 255
)

type userView struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            *string    `json:"role"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func newUserView(u models.User) userView {
	v := userView{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		EmailVerifiedAt: u.EmailVerifiedAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
	if u.Role.IsSet() {
		role := string(u.Role)
		v.Role = &role
	}
	return v
}

type tokensView struct {
	AccessToken           string    `json:"accessToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

func newTokensView(pair models.TokenPair) tokensView {
	return tokensView{
		AccessToken:           pair.Access.Value,
		AccessTokenExpiresAt:  pair.Access.ExpiresAt,
		RefreshToken:          pair.Refresh.Value,
		RefreshTokenExpiresAt: pair.Refresh.ExpiresAt,
	}
}

type sessionView struct {
	User userView `json:"user"`
	tokensView
}

type brandProfileView struct {
	ID        uuid.UUID `json:"id"`
	Company   string    `json:"company"`
	Category  *string   `json:"category"`
	PhotoURL  *string   `json:"photo_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type influencerProfileView struct {
	ID                      uuid.UUID            `json:"id"`
	InstagramUsername       *string              `json:"instagram_username"`
	PhotoURL                *string              `json:"photo_url"`
	Categories              []string             `json:"categories"`
	FollowerTier            *models.FollowerTier `json:"follower_tier"`
	PortfolioURL            *string              `json:"portfolio_url"`
	InstagramFollowers      *int32               `json:"instagram_followers"`
	InstagramAvgLikes       *int32               `json:"instagram_avg_likes"`
	InstagramAvgComments    *int32               `json:"instagram_avg_comments"`
	InstagramEngagementRate *float64             `json:"instagram_engagement_rate"`
	CreatedAt               time.Time            `json:"created_at"`
	UpdatedAt               time.Time            `json:"updated_at"`
}

type profileView struct {
	userView
	BrandProfile      *brandProfileView      `json:"brand_profile,omitempty"`
	InfluencerProfile *influencerProfileView `json:"influencer_profile,omitempty"`
}

func newProfileView(u models.UserWithProfile) profileView {
	v := profileView{userView: newUserView(u.User)}

	switch p := u.Profile.(type) {
	case *models.BrandProfile:
		v.BrandProfile = &brandProfileView{
			ID:        p.ID,
			Company:   p.Company,
			Category:  p.Category,
			PhotoURL:  p.PhotoURL,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		}
	case *models.InfluencerProfile:
		v.InfluencerProfile = &influencerProfileView{
			ID:                      p.ID,
			InstagramUsername:       p.InstagramUsername,
			PhotoURL:                p.PhotoURL,
			Categories:              p.Categories,
			FollowerTier:            p.FollowerTier,
			PortfolioURL:            p.PortfolioURL,
			InstagramFollowers:      p.InstagramFollowers,
			InstagramAvgLikes:       p.InstagramAvgLikes,
			InstagramAvgComments:    p.InstagramAvgComments,
			InstagramEngagementRate: p.InstagramEngagementRate,
			CreatedAt:               p.CreatedAt,
			UpdatedAt:               p.UpdatedAt,
		}
	}
	return v
}

// Either a single string or list of strings
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = stringList{one}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

func clientMeta(r *http.Request) models.ClientMeta {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return models.ClientMeta{
		IP:        truncate(ip, maxIPLen),
		UserAgent: truncate(r.UserAgent(), maxUserAgentLen),
		Device:    truncate(r.Header.Get(DeviceHeader), maxDeviceLen),
	}
}

// Cut s to at most n runes, dropping invalid UTF-8 the database would reject
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Auth middleware always sets caller, so missing one is a routing mistake
func callerFrom(r *http.Request) models.AccessClaims {
	caller, ok := userctx.FromContext(r.Context())
	if !ok {
		panic("handler used without auth middleware")
	}
	return caller
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.Fail(w, http.StatusBadRequest, "Invalid id")
		return id, false
	}
	return id, true
}
