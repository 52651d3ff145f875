package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Kampayn/kampayn-be/internal/apperrors"
	"github.com/Kampayn/kampayn-be/internal/models"
)

type CampaignRepo struct {
	DB DBTX
}

const campaignColumns = `id, user_id, campaign_name, campaign_type::text, product_story, key_message,
content_dos, content_donts, platforms, influencer_tiers, content_types, influencers_needed,
budget, currency, payment_method, start_date, end_date, status::text, created_at, updated_at`

const createCampaign = `-- name: CreateCampaign
INSERT INTO campaigns (id, user_id, campaign_name, campaign_type, product_story, key_message,
    content_dos, content_donts, platforms, influencer_tiers, content_types, influencers_needed,
    budget, currency, payment_method, start_date, end_date, status)
VALUES (@id, @user_id, @name, @type::campaign_type_enum, @product_story, @key_message,
    @content_dos, @content_donts, @platforms, @influencer_tiers, @content_types, @influencers_needed,
    @budget, @currency, @payment_method, @start_date, @end_date, @status::campaign_status_enum)
RETURNING ` + campaignColumns

func (r *CampaignRepo) Create(ctx context.Context, c models.Campaign) (models.Campaign, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Currency == "" {
		c.Currency = models.DefaultCurrency
	}
	if c.Status == "" {
		c.Status = models.CampaignDraft
	}

	rows, _ := r.DB.Query(ctx, createCampaign, pgx.NamedArgs{
		"id":                 c.ID,
		"user_id":            c.UserID,
		"name":               c.Name,
		"type":               string(c.Type),
		"product_story":      c.ProductStory,
		"key_message":        c.KeyMessage,
		"content_dos":        c.ContentDos,
		"content_donts":      c.ContentDonts,
		"platforms":          c.Platforms,
		"influencer_tiers":   c.InfluencerTiers,
		"content_types":      c.ContentTypes,
		"influencers_needed": c.InfluencersNeeded,
		"budget":             c.Budget,
		"currency":           c.Currency,
		"payment_method":     c.PaymentMethod,
		"start_date":         c.StartDate.Time,
		"end_date":           c.EndDate.Time,
		"status":             string(c.Status),
	})
	return collectCampaign(rows)
}

const getCampaign = `-- name: GetCampaign
SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

func (r *CampaignRepo) Get(ctx context.Context, id uuid.UUID) (models.Campaign, error) {
	rows, _ := r.DB.Query(ctx, getCampaign, id)
	return collectCampaign(rows)
}

const updateCampaign = `-- name: UpdateCampaign, NULL params keep current values
UPDATE campaigns
SET campaign_name = COALESCE(@name, campaign_name),
    campaign_type = COALESCE(@type::campaign_type_enum, campaign_type),
    product_story = COALESCE(@product_story, product_story),
    key_message = COALESCE(@key_message, key_message),
    content_dos = COALESCE(@content_dos::text[], content_dos),
    content_donts = COALESCE(@content_donts::text[], content_donts),
    platforms = COALESCE(@platforms::varchar[], platforms),
    influencer_tiers = COALESCE(@influencer_tiers::varchar[], influencer_tiers),
    content_types = COALESCE(@content_types::varchar[], content_types),
    influencers_needed = COALESCE(@influencers_needed::integer, influencers_needed),
    budget = COALESCE(@budget::numeric, budget),
    currency = COALESCE(@currency, currency),
    payment_method = COALESCE(@payment_method, payment_method),
    start_date = COALESCE(@start_date::date, start_date),
    end_date = COALESCE(@end_date::date, end_date),
    status = COALESCE(@status::campaign_status_enum, status),
    updated_at = now()
WHERE id = @id
RETURNING ` + campaignColumns

func (r *CampaignRepo) Update(ctx context.Context, id uuid.UUID, p models.CampaignPatch) (models.Campaign, error) {
	rows, _ := r.DB.Query(ctx, updateCampaign, pgx.NamedArgs{
		"id":                 id,
		"name":               p.Name,
		"type":               (*string)(p.Type),
		"product_story":      p.ProductStory,
		"key_message":        p.KeyMessage,
		"content_dos":        p.ContentDos,
		"content_donts":      p.ContentDonts,
		"platforms":          p.Platforms,
		"influencer_tiers":   p.InfluencerTiers,
		"content_types":      p.ContentTypes,
		"influencers_needed": p.InfluencersNeeded,
		"budget":             p.Budget,
		"currency":           p.Currency,
		"payment_method":     p.PaymentMethod,
		"start_date":         dateOrNil(p.StartDate),
		"end_date":           dateOrNil(p.EndDate),
		"status":             (*string)(p.Status),
	})
	return collectCampaign(rows)
}

const deleteCampaign = `-- name: DeleteCampaign
DELETE FROM campaigns WHERE id = $1`

func (r *CampaignRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteCampaign, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCampaignNotFound
	}
	return nil
}

// Columns allowed in ORDER BY
var campaignSortColumns = map[models.CampaignSortField]string{
	models.SortByCreatedAt: "created_at",
	models.SortByUpdatedAt: "updated_at",
	models.SortByName:      "campaign_name",
	models.SortByStartDate: "start_date",
	models.SortByEndDate:   "end_date",
	models.SortByBudget:    "budget",
}

func (r *CampaignRepo) List(ctx context.Context, f models.CampaignFilter) (models.CampaignPage, error) {
	page := models.CampaignPage{Page: f.Page, Limit: f.Limit}

	where := []string{"TRUE"}
	args := pgx.NamedArgs{}
	if f.OwnerID != nil {
		where = append(where, "user_id = @owner_id")
		args["owner_id"] = *f.OwnerID
	}
	if f.Status != nil {
		where = append(where, "status = @status::campaign_status_enum")
		args["status"] = string(*f.Status)
	}
	if f.Type != nil {
		where = append(where, "campaign_type = @type::campaign_type_enum")
		args["type"] = string(*f.Type)
	}
	if f.Search != "" {
		where = append(where, "(campaign_name ILIKE @search OR product_story ILIKE @search OR key_message ILIKE @search)")
		args["search"] = "%" + escapeLike(f.Search) + "%"
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	err := r.DB.QueryRow(ctx, "SELECT count(*) FROM campaigns WHERE "+whereSQL, args).Scan(&total)
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}
	page.TotalItems = total

	column, ok := campaignSortColumns[f.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if f.SortDesc {
		direction = "DESC"
	}

	args["limit"] = f.Limit
	args["offset"] = (f.Page - 1) * f.Limit
	query := fmt.Sprintf(
		"SELECT %s FROM campaigns WHERE %s ORDER BY %s %s, id LIMIT @limit OFFSET @offset",
		campaignColumns, whereSQL, column, direction,
	)

	rows, _ := r.DB.Query(ctx, query, args)
	campaigns, err := pgx.CollectRows(rows, rowToCampaign)
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}
	page.Campaigns = campaigns

	return page, nil
}

func collectCampaign(rows pgx.Rows) (models.Campaign, error) {
	c, err := pgx.CollectOneRow(rows, rowToCampaign)

	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, pgx.ErrNoRows):
		return c, apperrors.ErrCampaignNotFound
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation && pgErr.ConstraintName == "campaigns_dates_check":
		return c, apperrors.ErrCampaignDates
	default:
		return c, fmt.Errorf("db error: %w", err)
	}
}

func rowToCampaign(row pgx.CollectableRow) (models.Campaign, error) {
	var c models.Campaign
	err := row.Scan(
		&c.ID, &c.UserID, &c.Name, (*string)(&c.Type), &c.ProductStory, &c.KeyMessage,
		&c.ContentDos, &c.ContentDonts, &c.Platforms, &c.InfluencerTiers, &c.ContentTypes, &c.InfluencersNeeded,
		&c.Budget, &c.Currency, &c.PaymentMethod, &c.StartDate.Time, &c.EndDate.Time, (*string)(&c.Status),
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func dateOrNil(d *models.Date) *time.Time {
	if d == nil {
		return nil
	}
	return &d.Time
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
