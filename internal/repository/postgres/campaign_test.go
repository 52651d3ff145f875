package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kampayn/kampayn-be/internal/apperrors"
	"github.com/Kampayn/kampayn-be/internal/models"
	"github.com/Kampayn/kampayn-be/internal/testutil"
)

func newTestCampaign(ownerID uuid.UUID, name string) models.Campaign {
	return models.Campaign{
		UserID:            ownerID,
		Name:              name,
		Type:              models.CampaignProductLaunch,
		ProductStory:      "Our new serum",
		KeyMessage:        "Glow every day",
		ContentDos:        []string{"show the bottle"},
		ContentDonts:      []string{"mention competitors"},
		Platforms:         []string{"instagram"},
		InfluencerTiers:   []string{"micro"},
		ContentTypes:      []string{"reel"},
		InfluencersNeeded: 3,
		Budget:            decimal.RequireFromString("1500000.50"),
		PaymentMethod:     "bank_transfer",
		StartDate:         models.NewDate(2026, time.March, 1),
		EndDate:           models.NewDate(2026, time.March, 31),
	}
}

func Test_CampaignRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	createOwner := func(t *testing.T, tx pgx.Tx, email string) models.User {
		users := UserRepo{DB: tx}
		u := newTestUser(email)
		u.Role = models.RoleBrand
		owner, err := users.CreateUser(t.Context(), u)
		require.NoError(t, err)
		return owner
	}

	t.Run("create campaign with defaults", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CampaignRepo{DB: tx}
			owner := createOwner(t, tx, "brand@example.com")

			got, err := repo.Create(t.Context(), newTestCampaign(owner.ID, "Serum launch"))

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, got.ID)
			assert.Equal(t, models.DefaultCurrency, got.Currency)
			assert.Equal(t, models.CampaignDraft, got.Status)
			assert.Equal(t, models.CampaignProductLaunch, got.Type)
			assert.True(t, decimal.RequireFromString("1500000.50").Equal(got.Budget))
			assert.Equal(t, "2026-03-01", got.StartDate.String())
			assert.Equal(t, []string{"show the bottle"}, got.ContentDos)
		})
	})

	t.Run("create campaign with wrong dates", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CampaignRepo{DB: tx}
			owner := createOwner(t, tx, "brand@example.com")
			c := newTestCampaign(owner.ID, "Backwards")
			c.EndDate = c.StartDate

			_, err := repo.Create(t.Context(), c)

			require.ErrorIs(t, err, apperrors.ErrCampaignDates)
		})
	})

	t.Run("get campaign", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CampaignRepo{DB: tx}
			owner := createOwner(t, tx, "brand@example.com")
			created, err := repo.Create(t.Context(), newTestCampaign(owner.ID, "Serum launch"))
			require.NoError(t, err)

			got, err := repo.Get(t.Context(), created.ID)
			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
			assert.Equal(t, created.Name, got.Name)

			_, err = repo.Get(t.Context(), uuid.New())
			require.ErrorIs(t, err, apperrors.ErrCampaignNotFound)
		})
	})

	t.Run("partial update", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CampaignRepo{DB: tx}
			owner := createOwner(t, tx, "brand@example.com")
			created, err := repo.Create(t.Context(), newTestCampaign(owner.ID, "Serum launch"))
			require.NoError(t, err)
			status := models.CampaignPublished
			budget := decimal.RequireFromString("99.99")

			got, err := repo.Update(t.Context(), created.ID, models.CampaignPatch{
				Name:      ptr("Serum relaunch"),
				Status:    &status,
				Budget:    &budget,
				Platforms: []string{"instagram", "tiktok"},
			})

			require.NoError(t, err)
			assert.Equal(t, "Serum relaunch", got.Name)
			assert.Equal(t, models.CampaignPublished, got.Status)
			assert.True(t, budget.Equal(got.Budget))
			assert.Equal(t, []string{"instagram", "tiktok"}, got.Platforms)
			assert.Equal(t, created.KeyMessage, got.KeyMessage, "untouched fields kept")
			assert.Equal(t, created.ContentDos, got.ContentDos, "untouched fields kept")
			assert.Equal(t, created.EndDate, got.EndDate)
		})
	})

	t.Run("update not existed", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CampaignRepo{DB: tx}

			_, err := repo.Update(t.Context(), uuid.New(), models.CampaignPatch{Name: ptr("x")})

			require.ErrorIs(t, err, apperrors.ErrCampaignNotFound)
		})
	})

	t.Run("delete", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CampaignRepo{DB: tx}
			owner := createOwner(t, tx, "brand@example.com")
			created, err := repo.Create(t.Context(), newTestCampaign(owner.ID, "Serum launch"))
			require.NoError(t, err)

			require.NoError(t, repo.Delete(t.Context(), created.ID))
			require.ErrorIs(t, repo.Delete(t.Context(), created.ID), apperrors.ErrCampaignNotFound)
		})
	})

	t.Run("list with filters and paging", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CampaignRepo{DB: tx}
			owner := createOwner(t, tx, "brand@example.com")
			other := createOwner(t, tx, "other@example.com")

			for _, name := range []string{"Alpha serum", "Beta lipstick", "Gamma serum"} {
				_, err := repo.Create(t.Context(), newTestCampaign(owner.ID, name))
				require.NoError(t, err)
			}
			promo := newTestCampaign(other.ID, "Delta 100% sale")
			promo.Type = models.CampaignPromoSale
			_, err := repo.Create(t.Context(), promo)
			require.NoError(t, err)

			t.Run("all sorted by name", func(t *testing.T) {
				page, err := repo.List(t.Context(), models.CampaignFilter{SortBy: models.SortByName, Page: 1, Limit: 10})
				require.NoError(t, err)

				require.Equal(t, 4, page.TotalItems)
				require.Len(t, page.Campaigns, 4)
				assert.Equal(t, "Alpha serum", page.Campaigns[0].Name)
				assert.Equal(t, "Delta 100% sale", page.Campaigns[3].Name)
			})

			t.Run("second page", func(t *testing.T) {
				page, err := repo.List(t.Context(), models.CampaignFilter{SortBy: models.SortByName, SortDesc: true, Page: 2, Limit: 3})
				require.NoError(t, err)

				assert.Equal(t, 4, page.TotalItems)
				assert.Equal(t, 2, page.TotalPages())
				require.Len(t, page.Campaigns, 1)
				assert.Equal(t, "Alpha serum", page.Campaigns[0].Name)
			})

			t.Run("by owner and search", func(t *testing.T) {
				page, err := repo.List(t.Context(), models.CampaignFilter{OwnerID: &owner.ID, Search: "SERUM", Page: 1, Limit: 10})
				require.NoError(t, err)

				assert.Equal(t, 2, page.TotalItems)
				for _, c := range page.Campaigns {
					assert.Equal(t, owner.ID, c.UserID)
				}
			})

			t.Run("search escapes wildcards", func(t *testing.T) {
				page, err := repo.List(t.Context(), models.CampaignFilter{Search: "100%", Page: 1, Limit: 10})
				require.NoError(t, err)

				require.Equal(t, 1, page.TotalItems)
				assert.Equal(t, "Delta 100% sale", page.Campaigns[0].Name)
			})

			t.Run("by type", func(t *testing.T) {
				typ := models.CampaignPromoSale
				page, err := repo.List(t.Context(), models.CampaignFilter{Type: &typ, Page: 1, Limit: 10})
				require.NoError(t, err)

				assert.Equal(t, 1, page.TotalItems)
			})

			t.Run("by status", func(t *testing.T) {
				status := models.CampaignActive
				page, err := repo.List(t.Context(), models.CampaignFilter{Status: &status, Page: 1, Limit: 10})
				require.NoError(t, err)

				assert.Equal(t, 0, page.TotalItems)
				assert.Empty(t, page.Campaigns)
			})
		})
	})
}
