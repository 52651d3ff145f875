package campaign

import (
	"context"

	"github.com/google/uuid"

	"github.com/Kampayn/kampayn-be/internal/apperrors"
	"github.com/Kampayn/kampayn-be/internal/models"
	"github.com/Kampayn/kampayn-be/internal/repository"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Campaign as seen by a caller
// Commercial terms are visible to the owner only
type View struct {
	models.Campaign
	Owner bool
}

type CampaignService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *CampaignService {
	return &CampaignService{storage: storage}
}

// Create campaign owned by the caller
// Caller role is taken from storage, not from token claims
func (s *CampaignService) Create(ctx context.Context, callerID uuid.UUID, c models.Campaign) (models.Campaign, error) {
	user, err := s.storage.User().GetUserByID(ctx, callerID)
	if err != nil {
		return c, err
	}
	if !user.IsActive() || user.Role != models.RoleBrand {
		return c, apperrors.ErrNotBrand
	}

	if !c.StartDate.Before(c.EndDate.Time) {
		return c, apperrors.ErrCampaignDates
	}

	c.ID = uuid.Nil
	c.UserID = callerID
	return s.storage.Campaign().Create(ctx, c)
}

func (s *CampaignService) Get(ctx context.Context, callerID uuid.UUID, id uuid.UUID) (View, error) {
	c, err := s.storage.Campaign().Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return View{Campaign: c, Owner: c.UserID == callerID}, nil
}

// List campaigns of every brand
// Budget is hidden from non owners, so it can't be used for ordering here
func (s *CampaignService) List(ctx context.Context, filter models.CampaignFilter) (models.CampaignPage, error) {
	if filter.SortBy == models.SortByBudget {
		return models.CampaignPage{}, apperrors.ErrBudgetSortDenied
	}
	filter.OwnerID = nil
	return s.storage.Campaign().List(ctx, normalize(filter))
}

// ListMine lists campaigns owned by the caller
func (s *CampaignService) ListMine(ctx context.Context, callerID uuid.UUID, filter models.CampaignFilter) (models.CampaignPage, error) {
	filter.OwnerID = &callerID
	return s.storage.Campaign().List(ctx, normalize(filter))
}

func normalize(f models.CampaignFilter) models.CampaignFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.Limit < 1:
		f.Limit = DefaultPageLimit
	case f.Limit > MaxPageLimit:
		f.Limit = MaxPageLimit
	}
	if f.SortBy == "" {
		f.SortBy = models.SortByCreatedAt
		f.SortDesc = true
	}
	return f
}

// Update changes fields set in patch
// Only the owner may update campaign
func (s *CampaignService) Update(ctx context.Context, callerID uuid.UUID, id uuid.UUID, patch models.CampaignPatch) (models.Campaign, error) {
	var updated models.Campaign

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		current, err := owned(ctx, tx, callerID, id)
		if err != nil {
			return err
		}

		start, end := current.StartDate, current.EndDate
		if patch.StartDate != nil {
			start = *patch.StartDate
		}
		if patch.EndDate != nil {
			end = *patch.EndDate
		}
		if !start.Before(end.Time) {
			return apperrors.ErrCampaignDates
		}

		updated, err = tx.Campaign().Update(ctx, id, patch)
		return err
	})

	return updated, err
}

// Delete campaign of the caller unless it is running
func (s *CampaignService) Delete(ctx context.Context, callerID uuid.UUID, id uuid.UUID) error {
	return s.storage.InTx(ctx, func(tx repository.Storage) error {
		current, err := owned(ctx, tx, callerID, id)
		if err != nil {
			return err
		}
		if current.Status == models.CampaignActive {
			return apperrors.ErrCampaignActive
		}

		return tx.Campaign().Delete(ctx, id)
	})
}

func owned(ctx context.Context, storage repository.Storage, callerID uuid.UUID, id uuid.UUID) (models.Campaign, error) {
	c, err := storage.Campaign().Get(ctx, id)
	if err != nil {
		return c, err
	}
	if c.UserID != callerID {
		return c, apperrors.ErrNotCampaignOwner
	}
	return c, nil
}
