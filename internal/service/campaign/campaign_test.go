package campaign

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Kampayn/kampayn-be/internal/apperrors"
	"github.com/Kampayn/kampayn-be/internal/models"
	"github.com/Kampayn/kampayn-be/internal/repository"
	"github.com/Kampayn/kampayn-be/internal/repository/postgres"
	"github.com/Kampayn/kampayn-be/internal/testutil"
)

func newCampaign(name string) models.Campaign {
	return models.Campaign{
		Name:              name,
		Type:              models.CampaignBrandAwareness,
		ProductStory:      "story",
		KeyMessage:        "message",
		ContentDos:        []string{},
		ContentDonts:      []string{},
		Platforms:         []string{"instagram"},
		InfluencerTiers:   []string{"nano"},
		ContentTypes:      []string{"post"},
		InfluencersNeeded: 1,
		Budget:            decimal.NewFromInt(500000),
		PaymentMethod:     "bank_transfer",
		StartDate:         models.NewDate(2026, time.May, 1),
		EndDate:           models.NewDate(2026, time.May, 10),
	}
}

func TestCampaign(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	type accounts struct {
		brand, otherBrand, influencer, fresh models.User
	}

	inTx := func(t *testing.T, fn func(s *CampaignService, storage repository.Storage, a accounts)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			create := func(email string, role models.Role) models.User {
				u, err := storage.User().CreateUser(t.Context(), models.User{Name: email, Email: email, PasswordHash: "hash", Role: role})
				require.NoError(t, err)
				return u
			}

			fn(NewService(storage), storage, accounts{
				brand:      create("brand@x.com", models.RoleBrand),
				otherBrand: create("other@x.com", models.RoleBrand),
				influencer: create("influencer@x.com", models.RoleInfluencer),
				fresh:      create("fresh@x.com", models.RoleUnset),
			})
		})
	}

	t.Run("Create", func(t *testing.T) {
		t.Run("brand ok", func(t *testing.T) {
			inTx(t, func(s *CampaignService, _ repository.Storage, a accounts) {
				c, err := s.Create(t.Context(), a.brand.ID, newCampaign("Launch"))

				require.NoError(t, err)
				require.Equal(t, a.brand.ID, c.UserID)
				require.Equal(t, models.CampaignDraft, c.Status)
			})
		})

		for _, who := range []string{"influencer", "fresh"} {
			t.Run(who+" forbidden", func(t *testing.T) {
				inTx(t, func(s *CampaignService, _ repository.Storage, a accounts) {
					caller := a.influencer
					if who == "fresh" {
						caller = a.fresh
					}

					_, err := s.Create(t.Context(), caller.ID, newCampaign("Launch"))

					require.ErrorIs(t, err, apperrors.ErrNotBrand)
				})
			})
		}

		t.Run("end before start", func(t *testing.T) {
			inTx(t, func(s *CampaignService, _ repository.Storage, a accounts) {
				c := newCampaign("Launch")
				c.StartDate, c.EndDate = c.EndDate, c.StartDate

				_, err := s.Create(t.Context(), a.brand.ID, c)

				require.ErrorIs(t, err, apperrors.ErrCampaignDates)
			})
		})
	})

	t.Run("Get marks owner", func(t *testing.T) {
		inTx(t, func(s *CampaignService, _ repository.Storage, a accounts) {
			c, err := s.Create(t.Context(), a.brand.ID, newCampaign("Launch"))
			require.NoError(t, err)

			own, err := s.Get(t.Context(), a.brand.ID, c.ID)
			require.NoError(t, err)
			require.True(t, own.Owner)

			foreign, err := s.Get(t.Context(), a.influencer.ID, c.ID)
			require.NoError(t, err)
			require.False(t, foreign.Owner)

			_, err = s.Get(t.Context(), a.brand.ID, uuid.New())
			require.ErrorIs(t, err, apperrors.ErrCampaignNotFound)
		})
	})

	t.Run("List and ListMine", func(t *testing.T) {
		inTx(t, func(s *CampaignService, _ repository.Storage, a accounts) {
			for _, name := range []string{"A", "B"} {
				_, err := s.Create(t.Context(), a.brand.ID, newCampaign(name))
				require.NoError(t, err)
			}
			_, err := s.Create(t.Context(), a.otherBrand.ID, newCampaign("C"))
			require.NoError(t, err)

			all, err := s.List(t.Context(), models.CampaignFilter{OwnerID: &a.brand.ID})
			require.NoError(t, err)
			require.Equal(t, 3, all.TotalItems, "owner filter is ignored for public list")
			require.Equal(t, 1, all.Page)
			require.Equal(t, DefaultPageLimit, all.Limit)

			mine, err := s.ListMine(t.Context(), a.brand.ID, models.CampaignFilter{Limit: 1000})
			require.NoError(t, err)
			require.Equal(t, 2, mine.TotalItems)
			require.Equal(t, MaxPageLimit, mine.Limit)
		})
	})

	t.Run("budget order only for own campaigns", func(t *testing.T) {
		inTx(t, func(s *CampaignService, _ repository.Storage, a accounts) {
			_, err := s.Create(t.Context(), a.brand.ID, newCampaign("A"))
			require.NoError(t, err)

			byBudget := models.CampaignFilter{SortBy: models.SortByBudget}

			_, err = s.List(t.Context(), byBudget)
			require.ErrorIs(t, err, apperrors.ErrBudgetSortDenied)

			mine, err := s.ListMine(t.Context(), a.brand.ID, byBudget)
			require.NoError(t, err)
			require.Equal(t, 1, mine.TotalItems)
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("owner ok", func(t *testing.T) {
			inTx(t, func(s *CampaignService, _ repository.Storage, a accounts) {
				c, err := s.Create(t.Context(), a.brand.ID, newCampaign("Launch"))
				require.NoError(t, err)
				name := "Relaunch"

				got, err := s.Update(t.Context(), a.brand.ID, c.ID, models.CampaignPatch{Name: &name})

				require.NoError(t, err)
				require.Equal(t, "Relaunch", got.Name)
			})
		})

		t.Run("not owner", func(t *testing.T) {
			inTx(t, func(s *CampaignService, _ repository.Storage, a accounts) {
				c, err := s.Create(t.Context(), a.brand.ID, newCampaign("Launch"))
				require.NoError(t, err)
				name := "Hijack"

				_, err = s.Update(t.Context(), a.otherBrand.ID, c.ID, models.CampaignPatch{Name: &name})

				require.ErrorIs(t, err, apperrors.ErrNotCampaignOwner)
			})
		})

		t.Run("patch dates checked against stored ones", func(t *testing.T) {
			inTx(t, func(s *CampaignService, _ repository.Storage, a accounts) {
				c, err := s.Create(t.Context(), a.brand.ID, newCampaign("Launch"))
				require.NoError(t, err)
				start := models.NewDate(2026, time.June, 1)

				_, err = s.Update(t.Context(), a.brand.ID, c.ID, models.CampaignPatch{StartDate: &start})

				require.ErrorIs(t, err, apperrors.ErrCampaignDates)
			})
		})

		t.Run("missing", func(t *testing.T) {
			inTx(t, func(s *CampaignService, _ repository.Storage, a accounts) {
				_, err := s.Update(t.Context(), a.brand.ID, uuid.New(), models.CampaignPatch{})

				require.ErrorIs(t, err, apperrors.ErrCampaignNotFound)
			})
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("owner ok", func(t *testing.T) {
			inTx(t, func(s *CampaignService, _ repository.Storage, a accounts) {
				c, err := s.Create(t.Context(), a.brand.ID, newCampaign("Launch"))
				require.NoError(t, err)

				require.NoError(t, s.Delete(t.Context(), a.brand.ID, c.ID))

				_, err = s.Get(t.Context(), a.brand.ID, c.ID)
				require.ErrorIs(t, err, apperrors.ErrCampaignNotFound)
			})
		})

		t.Run("not owner", func(t *testing.T) {
			inTx(t, func(s *CampaignService, _ repository.Storage, a accounts) {
				c, err := s.Create(t.Context(), a.brand.ID, newCampaign("Launch"))
				require.NoError(t, err)

				require.ErrorIs(t, s.Delete(t.Context(), a.otherBrand.ID, c.ID), apperrors.ErrNotCampaignOwner)
			})
		})

		t.Run("active campaign", func(t *testing.T) {
			inTx(t, func(s *CampaignService, _ repository.Storage, a accounts) {
				c := newCampaign("Launch")
				c.Status = models.CampaignActive
				created, err := s.Create(t.Context(), a.brand.ID, c)
				require.NoError(t, err)

				require.ErrorIs(t, s.Delete(t.Context(), a.brand.ID, created.ID), apperrors.ErrCampaignActive)
			})
		})
	})
}
