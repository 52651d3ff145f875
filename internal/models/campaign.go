package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CampaignType string

const (
	CampaignBrandAwareness CampaignType = "brand_awareness"
	CampaignProductLaunch  CampaignType = "product_launch"
	CampaignPromoSale      CampaignType = "promo_sale"
	CampaignOther          CampaignType = "other"
)

type CampaignStatus string

const (
	CampaignDraft         CampaignStatus = "draft"
	CampaignPublished     CampaignStatus = "published"
	CampaignPendingReview CampaignStatus = "pending_review"
	CampaignActive        CampaignStatus = "active"
	CampaignCompleted     CampaignStatus = "completed"
	CampaignCancelled     CampaignStatus = "cancelled"
)

const DefaultCurrency = "IDR"

type Campaign struct {
	ID                uuid.UUID
	UserID            uuid.UUID // brand that owns the campaign
	Name              string
	Type              CampaignType
	ProductStory      string
	KeyMessage        string
	ContentDos        []string
	ContentDonts      []string
	Platforms         []string
	InfluencerTiers   []string
	ContentTypes      []string
	InfluencersNeeded int32
	Budget            decimal.Decimal
	Currency          string
	PaymentMethod     string
	StartDate         Date
	EndDate           Date
	Status            CampaignStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Fields to change, nil ones are left as is
type CampaignPatch struct {
	Name              *string
	Type              *CampaignType
	ProductStory      *string
	KeyMessage        *string
	ContentDos        []string
	ContentDonts      []string
	Platforms         []string
	InfluencerTiers   []string
	ContentTypes      []string
	InfluencersNeeded *int32
	Budget            *decimal.Decimal
	Currency          *string
	PaymentMethod     *string
	StartDate         *Date
	EndDate           *Date
	Status            *CampaignStatus
}

type CampaignSortField string

const (
	SortByCreatedAt CampaignSortField = "created_at"
	SortByUpdatedAt CampaignSortField = "updated_at"
	SortByName      CampaignSortField = "campaign_name"
	SortByStartDate CampaignSortField = "start_date"
	SortByEndDate   CampaignSortField = "end_date"
	SortByBudget    CampaignSortField = "budget"
)

type CampaignFilter struct {
	OwnerID  *uuid.UUID
	Status   *CampaignStatus
	Type     *CampaignType
	Search   string
	SortBy   CampaignSortField
	SortDesc bool
	Page     int
	Limit    int
}

type CampaignPage struct {
	Campaigns  []Campaign
	TotalItems int
	Page       int
	Limit      int
}

func (p CampaignPage) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.TotalItems + p.Limit - 1) / p.Limit
}
