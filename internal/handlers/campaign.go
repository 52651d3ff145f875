package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Kampayn/kampayn-be/internal/handlers/render"
	"github.com/Kampayn/kampayn-be/internal/logger"
	"github.com/Kampayn/kampayn-be/internal/models"
	"github.com/Kampayn/kampayn-be/internal/service/campaign"
)

type campaignView struct {
	ID                uuid.UUID        `json:"id"`
	UserID            uuid.UUID        `json:"user_id"`
	Name              string           `json:"campaign_name"`
	Type              string           `json:"campaign_type"`
	ProductStory      string           `json:"product_story"`
	KeyMessage        string           `json:"key_message"`
	ContentDos        []string         `json:"content_dos"`
	ContentDonts      []string         `json:"content_donts"`
	Platforms         []string         `json:"platforms"`
	InfluencerTiers   []string         `json:"influencer_tiers"`
	ContentTypes      []string         `json:"content_types"`
	InfluencersNeeded int32            `json:"influencers_needed"`
	Budget            *decimal.Decimal `json:"budget,omitempty"`
	Currency          *string          `json:"currency,omitempty"`
	PaymentMethod     *string          `json:"payment_method,omitempty"`
	StartDate         models.Date      `json:"start_date"`
	EndDate           models.Date      `json:"end_date"`
	Status            string           `json:"status"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// Commercial terms are rendered for the owner only
func newCampaignView(c models.Campaign, owner bool) campaignView {
	v := campaignView{
		ID:                c.ID,
		UserID:            c.UserID,
		Name:              c.Name,
		Type:              string(c.Type),
		ProductStory:      c.ProductStory,
		KeyMessage:        c.KeyMessage,
		ContentDos:        c.ContentDos,
		ContentDonts:      c.ContentDonts,
		Platforms:         c.Platforms,
		InfluencerTiers:   c.InfluencerTiers,
		ContentTypes:      c.ContentTypes,
		InfluencersNeeded: c.InfluencersNeeded,
		StartDate:         c.StartDate,
		EndDate:           c.EndDate,
		Status:            string(c.Status),
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	if owner {
		v.Budget = &c.Budget
		v.Currency = &c.Currency
		v.PaymentMethod = &c.PaymentMethod
	}
	return v
}

type createCampaignRequest struct {
	Name              string          `json:"campaign_name" validate:"required,min=3,max=255"`
	Type              string          `json:"campaign_type" validate:"required,oneof=brand_awareness product_launch promo_sale other"`
	ProductStory      string          `json:"product_story" validate:"required"`
	KeyMessage        string          `json:"key_message" validate:"required"`
	ContentDos        []string        `json:"content_dos" validate:"required,min=1,dive,required"`
	ContentDonts      []string        `json:"content_donts" validate:"required,min=1,dive,required"`
	Platforms         []string        `json:"platforms" validate:"required,min=1,dive,required,max=50"`
	InfluencerTiers   []string        `json:"influencer_tiers" validate:"required,min=1,dive,required,max=10"`
	ContentTypes      []string        `json:"content_types" validate:"required,min=1,dive,required,max=20"`
	InfluencersNeeded int32           `json:"influencers_needed" validate:"required,gte=1"`
	Budget            decimal.Decimal `json:"budget" validate:"required,gt=0,lt=10000000000000"`
	Currency          string          `json:"currency" validate:"omitempty,iso4217"`
	PaymentMethod     string          `json:"payment_method" validate:"required,max=100"`
	StartDate         models.Date     `json:"start_date" validate:"required"`
	EndDate           models.Date     `json:"end_date" validate:"required"`
	Status            string          `json:"status" validate:"omitempty,oneof=draft published pending_review active completed cancelled"`
}

func (req createCampaignRequest) campaign() models.Campaign {
	return models.Campaign{
		Name:              req.Name,
		Type:              models.CampaignType(req.Type),
		ProductStory:      req.ProductStory,
		KeyMessage:        req.KeyMessage,
		ContentDos:        req.ContentDos,
		ContentDonts:      req.ContentDonts,
		Platforms:         req.Platforms,
		InfluencerTiers:   req.InfluencerTiers,
		ContentTypes:      req.ContentTypes,
		InfluencersNeeded: req.InfluencersNeeded,
		Budget:            req.Budget.Round(2),
		Currency:          req.Currency,
		PaymentMethod:     req.PaymentMethod,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		Status:            models.CampaignStatus(req.Status),
	}
}

// Absent fields are left as is
type updateCampaignRequest struct {
	Name              *string          `json:"campaign_name" validate:"omitempty,min=3,max=255"`
	Type              *string          `json:"campaign_type" validate:"omitempty,oneof=brand_awareness product_launch promo_sale other"`
	ProductStory      *string          `json:"product_story" validate:"omitempty,min=1"`
	KeyMessage        *string          `json:"key_message" validate:"omitempty,min=1"`
	ContentDos        []string         `json:"content_dos" validate:"omitempty,dive,required"`
	ContentDonts      []string         `json:"content_donts" validate:"omitempty,dive,required"`
	Platforms         []string         `json:"platforms" validate:"omitempty,dive,required,max=50"`
	InfluencerTiers   []string         `json:"influencer_tiers" validate:"omitempty,dive,required,max=10"`
	ContentTypes      []string         `json:"content_types" validate:"omitempty,dive,required,max=20"`
	InfluencersNeeded *int32           `json:"influencers_needed" validate:"omitempty,gte=1"`
	Budget            *decimal.Decimal `json:"budget" validate:"omitempty,gt=0,lt=10000000000000"`
	Currency          *string          `json:"currency" validate:"omitempty,iso4217"`
	PaymentMethod     *string          `json:"payment_method" validate:"omitempty,max=100"`
	StartDate         *models.Date     `json:"start_date"`
	EndDate           *models.Date     `json:"end_date"`
	Status            *string          `json:"status" validate:"omitempty,oneof=draft published pending_review active completed cancelled"`
}

// Build patch, false if nothing to change
func (req updateCampaignRequest) patch() (models.CampaignPatch, bool) {
	p := models.CampaignPatch{
		Name:              req.Name,
		ProductStory:      req.ProductStory,
		KeyMessage:        req.KeyMessage,
		ContentDos:        nonEmpty(req.ContentDos),
		ContentDonts:      nonEmpty(req.ContentDonts),
		Platforms:         nonEmpty(req.Platforms),
		InfluencerTiers:   nonEmpty(req.InfluencerTiers),
		ContentTypes:      nonEmpty(req.ContentTypes),
		InfluencersNeeded: req.InfluencersNeeded,
		Currency:          req.Currency,
		PaymentMethod:     req.PaymentMethod,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
	}
	if req.Type != nil {
		t := models.CampaignType(*req.Type)
		p.Type = &t
	}
	if req.Status != nil {
		s := models.CampaignStatus(*req.Status)
		p.Status = &s
	}
	if req.Budget != nil {
		b := req.Budget.Round(2)
		p.Budget = &b
	}

	changed := p.Name != nil || p.Type != nil || p.ProductStory != nil || p.KeyMessage != nil ||
		p.ContentDos != nil || p.ContentDonts != nil || p.Platforms != nil ||
		p.InfluencerTiers != nil || p.ContentTypes != nil || p.InfluencersNeeded != nil ||
		p.Budget != nil || p.Currency != nil || p.PaymentMethod != nil ||
		p.StartDate != nil || p.EndDate != nil || p.Status != nil
	return p, changed
}

func nonEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

type listQuery struct {
	Page      int    `json:"page" validate:"gte=1"`
	Limit     int    `json:"limit" validate:"gte=1,lte=100"`
	SortBy    string `json:"sort_by" validate:"oneof=created_at updated_at campaign_name start_date end_date budget"`
	SortOrder string `json:"sort_order" validate:"oneof=asc desc"`
	Status    string `json:"status" validate:"omitempty,oneof=draft published pending_review active completed cancelled"`
	Type      string `json:"campaign_type" validate:"omitempty,oneof=brand_awareness product_launch promo_sale other"`
	Search    string `json:"search" validate:"max=255"`
}

// Parse and validate list query, renders error response on failure
func bindListQuery(w http.ResponseWriter, q url.Values) (listQuery, bool) {
	lq := listQuery{
		SortBy:    valueOr(q.Get("sort_by"), string(models.SortByCreatedAt)),
		SortOrder: strings.ToLower(valueOr(q.Get("sort_order"), "desc")),
		Status:    q.Get("status"),
		Type:      q.Get("campaign_type"),
		Search:    strings.TrimSpace(q.Get("search")),
	}

	var ok bool
	if lq.Page, ok = queryInt(w, q, "page", 1); !ok {
		return lq, false
	}
	if lq.Limit, ok = queryInt(w, q, "limit", campaign.DefaultPageLimit); !ok {
		return lq, false
	}

	if err := render.Validate(w, lq); err != nil {
		return lq, false
	}
	return lq, true
}

func (lq listQuery) filter() models.CampaignFilter {
	f := models.CampaignFilter{
		Search:   lq.Search,
		SortBy:   models.CampaignSortField(lq.SortBy),
		SortDesc: lq.SortOrder == "desc",
		Page:     lq.Page,
		Limit:    lq.Limit,
	}
	if lq.Status != "" {
		s := models.CampaignStatus(lq.Status)
		f.Status = &s
	}
	if lq.Type != "" {
		t := models.CampaignType(lq.Type)
		f.Type = &t
	}
	return f
}

func valueOr(v string, def string) string {
	if v == "" {
		return def
	}
	return v
}

func queryInt(w http.ResponseWriter, q url.Values, name string, def int) (int, bool) {
	raw := q.Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		render.Fail(w, http.StatusBadRequest, "Invalid value for '"+name+"'")
		return 0, false
	}
	return n, true
}

type paginationView struct {
	CurrentPage  int  `json:"current_page"`
	TotalPages   int  `json:"total_pages"`
	TotalItems   int  `json:"total_items"`
	ItemsPerPage int  `json:"items_per_page"`
	HasNext      bool `json:"has_next"`
	HasPrev      bool `json:"has_prev"`
}

type campaignListView struct {
	Campaigns  []campaignView `json:"campaigns"`
	Pagination paginationView `json:"pagination"`
	Filters    listQuery      `json:"filters"`
}

func newCampaignListView(page models.CampaignPage, lq listQuery, callerID uuid.UUID) campaignListView {
	v := campaignListView{
		Campaigns: make([]campaignView, 0, len(page.Campaigns)),
		Pagination: paginationView{
			CurrentPage:  page.Page,
			TotalPages:   page.TotalPages(),
			TotalItems:   page.TotalItems,
			ItemsPerPage: page.Limit,
			HasNext:      page.Page < page.TotalPages(),
			HasPrev:      page.Page > 1,
		},
		Filters: lq,
	}
	for _, c := range page.Campaigns {
		v.Campaigns = append(v.Campaigns, newCampaignView(c, c.UserID == callerID))
	}
	return v
}

func handleCreateCampaign(cs campaignService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFrom(r)

		data, err := render.BindAndValidate[createCampaignRequest](w, r)
		if err != nil {
			return
		}

		c, err := cs.Create(r.Context(), caller.UserID, data.campaign())
		if err != nil {
			render.Error(w, l, err)
			return
		}

		render.Success(w, http.StatusCreated, "Campaign created successfully", map[string]any{
			"campaign": newCampaignView(c, true),
		})
	}
}

func handleListCampaigns(cs campaignService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFrom(r)

		lq, ok := bindListQuery(w, r.URL.Query())
		if !ok {
			return
		}

		page, err := cs.List(r.Context(), lq.filter())
		if err != nil {
			render.Error(w, l, err)
			return
		}

		render.Success(w, http.StatusOK, "Campaigns retrieved successfully", newCampaignListView(page, lq, caller.UserID))
	}
}

func handleListMyCampaigns(cs campaignService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFrom(r)

		lq, ok := bindListQuery(w, r.URL.Query())
		if !ok {
			return
		}

		page, err := cs.ListMine(r.Context(), caller.UserID, lq.filter())
		if err != nil {
			render.Error(w, l, err)
			return
		}

		render.Success(w, http.StatusOK, "Campaigns retrieved successfully", newCampaignListView(page, lq, caller.UserID))
	}
}

func handleGetCampaign(cs campaignService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFrom(r)
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		view, err := cs.Get(r.Context(), caller.UserID, id)
		if err != nil {
			render.Error(w, l, err)
			return
		}

		render.Success(w, http.StatusOK, "Campaign retrieved successfully", map[string]any{
			"campaign": newCampaignView(view.Campaign, view.Owner),
		})
	}
}

func handleUpdateCampaign(cs campaignService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFrom(r)
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[updateCampaignRequest](w, r)
		if err != nil {
			return
		}
		patch, changed := data.patch()
		if !changed {
			render.Fail(w, http.StatusBadRequest, "At least one field must be provided")
			return
		}

		c, err := cs.Update(r.Context(), caller.UserID, id, patch)
		if err != nil {
			render.Error(w, l, err)
			return
		}

		render.Success(w, http.StatusOK, "Campaign updated successfully", map[string]any{
			"campaign": newCampaignView(c, true),
		})
	}
}

func handleDeleteCampaign(cs campaignService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFrom(r)
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := cs.Delete(r.Context(), caller.UserID, id); err != nil {
			render.Error(w, l, err)
			return
		}

		render.Success(w, http.StatusOK, "Campaign deleted successfully", nil)
	}
}
