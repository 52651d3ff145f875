package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Kampayn/kampayn-be/internal/apperrors"
	"github.com/Kampayn/kampayn-be/internal/models"
	"github.com/Kampayn/kampayn-be/internal/repository"
)

type UserService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *UserService {
	return &UserService{storage: storage}
}

// GetProfile returns active account with its role profile
// Profile is nil until profile is completed
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (models.UserWithProfile, error) {
	return getProfile(ctx, s.storage, userID)
}

// CompleteProfile sets account role and saves role profile in one transaction
// Role that is already set can't be changed
func (s *UserService) CompleteProfile(ctx context.Context, userID uuid.UUID, profile models.Profile) (models.UserWithProfile, error) {
	var view models.UserWithProfile

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		if _, err := getActive(ctx, tx, userID); err != nil {
			return err
		}

		if _, err := tx.User().SetRole(ctx, userID, profile.Role()); err != nil {
			return err
		}

		switch p := profile.(type) {
		case *models.BrandProfile:
			p.UserID = userID
			if _, err := tx.Profile().UpsertBrand(ctx, *p); err != nil {
				return err
			}
		case *models.InfluencerProfile:
			p.UserID = userID
			if _, err := tx.Profile().UpsertInfluencer(ctx, *p); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown profile type %T", profile)
		}

		var err error
		view, err = getProfile(ctx, tx, userID)
		return err
	})

	return view, err
}

func getActive(ctx context.Context, storage repository.Storage, userID uuid.UUID) (models.User, error) {
	user, err := storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return user, err
	}
	if !user.IsActive() {
		return user, apperrors.ErrUserNotFound
	}
	return user, nil
}

func getProfile(ctx context.Context, storage repository.Storage, userID uuid.UUID) (models.UserWithProfile, error) {
	user, err := getActive(ctx, storage, userID)
	if err != nil {
		return models.UserWithProfile{}, err
	}

	profile, err := storage.Profile().GetProfile(ctx, user.ID, user.Role)
	if err != nil {
		return models.UserWithProfile{}, err
	}

	return models.UserWithProfile{User: user, Profile: profile}, nil
}
