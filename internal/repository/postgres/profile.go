package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Kampayn/kampayn-be/internal/models"
)

type ProfileRepo struct {
	DB DBTX
}

const brandColumns = `id, user_id, company, category, photo_url, created_at, updated_at`

const upsertBrand = `-- name: UpsertBrandProfile
INSERT INTO brand_profiles (id, user_id, company, category, photo_url)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE
SET company = EXCLUDED.company,
    category = EXCLUDED.category,
    photo_url = EXCLUDED.photo_url,
    updated_at = now()
RETURNING ` + brandColumns

func (r *ProfileRepo) UpsertBrand(ctx context.Context, p models.BrandProfile) (models.BrandProfile, error) {
	rows, _ := r.DB.Query(ctx, upsertBrand, uuid.New(), p.UserID, p.Company, p.Category, p.PhotoURL)
	saved, err := pgx.CollectOneRow(rows, rowToBrand)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

const influencerColumns = `id, user_id, instagram_username, photo_url, categories, follower_tier, portfolio_url,
instagram_followers, instagram_avg_likes, instagram_avg_comments, instagram_engagement_rate, created_at, updated_at`

const upsertInfluencer = `-- name: UpsertInfluencerProfile
INSERT INTO influencer_profiles (id, user_id, instagram_username, photo_url, categories, follower_tier, portfolio_url,
    instagram_followers, instagram_avg_likes, instagram_avg_comments, instagram_engagement_rate)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (user_id) DO UPDATE
SET instagram_username = EXCLUDED.instagram_username,
    photo_url = EXCLUDED.photo_url,
    categories = EXCLUDED.categories,
    follower_tier = EXCLUDED.follower_tier,
    portfolio_url = EXCLUDED.portfolio_url,
    instagram_followers = EXCLUDED.instagram_followers,
    instagram_avg_likes = EXCLUDED.instagram_avg_likes,
    instagram_avg_comments = EXCLUDED.instagram_avg_comments,
    instagram_engagement_rate = EXCLUDED.instagram_engagement_rate,
    updated_at = now()
RETURNING ` + influencerColumns

func (r *ProfileRepo) UpsertInfluencer(ctx context.Context, p models.InfluencerProfile) (models.InfluencerProfile, error) {
	var tier *string
	if p.FollowerTier != nil {
		s := string(*p.FollowerTier)
		tier = &s
	}

	rows, _ := r.DB.Query(ctx, upsertInfluencer,
		uuid.New(), p.UserID, p.InstagramUsername, p.PhotoURL, p.Categories, tier, p.PortfolioURL,
		p.InstagramFollowers, p.InstagramAvgLikes, p.InstagramAvgComments, p.InstagramEngagementRate,
	)
	saved, err := pgx.CollectOneRow(rows, rowToInfluencer)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

const getBrand = `-- name: GetBrandProfile
SELECT ` + brandColumns + ` FROM brand_profiles WHERE user_id = $1`

const getInfluencer = `-- name: GetInfluencerProfile
SELECT ` + influencerColumns + ` FROM influencer_profiles WHERE user_id = $1`

func (r *ProfileRepo) GetProfile(ctx context.Context, userID uuid.UUID, role models.Role) (models.Profile, error) {
	var (
		profile models.Profile
		err     error
	)

	switch role {
	case models.RoleBrand:
		rows, _ := r.DB.Query(ctx, getBrand, userID)
		var p models.BrandProfile
		p, err = pgx.CollectOneRow(rows, rowToBrand)
		profile = &p
	case models.RoleInfluencer:
		rows, _ := r.DB.Query(ctx, getInfluencer, userID)
		var p models.InfluencerProfile
		p, err = pgx.CollectOneRow(rows, rowToInfluencer)
		profile = &p
	default:
		return nil, nil
	}

	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	default:
		return nil, fmt.Errorf("db error: %w", err)
	}
}

func rowToBrand(row pgx.CollectableRow) (models.BrandProfile, error) {
	var p models.BrandProfile
	err := row.Scan(&p.ID, &p.UserID, &p.Company, &p.Category, &p.PhotoURL, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func rowToInfluencer(row pgx.CollectableRow) (models.InfluencerProfile, error) {
	var p models.InfluencerProfile
	var tier *string

	err := row.Scan(
		&p.ID, &p.UserID, &p.InstagramUsername, &p.PhotoURL, &p.Categories, &tier, &p.PortfolioURL,
		&p.InstagramFollowers, &p.InstagramAvgLikes, &p.InstagramAvgComments, &p.InstagramEngagementRate,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if tier != nil {
		t := models.FollowerTier(*tier)
		p.FollowerTier = &t
	}

	return p, err
}
