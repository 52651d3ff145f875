package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kampayn/kampayn-be/internal/models"
	"github.com/Kampayn/kampayn-be/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func Test_ProfileRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	createUser := func(t *testing.T, tx pgx.Tx) models.User {
		users := UserRepo{DB: tx}
		u, err := users.CreateUser(t.Context(), newTestUser("profile@example.com"))
		require.NoError(t, err)
		return u
	}

	t.Run("upsert brand twice keeps one row", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := ProfileRepo{DB: tx}
			user := createUser(t, tx)

			first, err := repo.UpsertBrand(t.Context(), models.BrandProfile{UserID: user.ID, Company: "Acme"})
			require.NoError(t, err)
			second, err := repo.UpsertBrand(t.Context(), models.BrandProfile{UserID: user.ID, Company: "Acme Corp", Category: ptr("fashion")})
			require.NoError(t, err)

			assert.Equal(t, first.ID, second.ID)
			assert.Equal(t, "Acme Corp", second.Company)
			require.NotNil(t, second.Category)
			assert.Equal(t, "fashion", *second.Category)
		})
	})

	t.Run("get brand profile", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := ProfileRepo{DB: tx}
			user := createUser(t, tx)
			saved, err := repo.UpsertBrand(t.Context(), models.BrandProfile{UserID: user.ID, Company: "Acme"})
			require.NoError(t, err)

			got, err := repo.GetProfile(t.Context(), user.ID, models.RoleBrand)

			require.NoError(t, err)
			brand, ok := got.(*models.BrandProfile)
			require.True(t, ok, "brand role must return brand profile")
			assert.Equal(t, saved, *brand)
		})
	})

	t.Run("get influencer profile", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := ProfileRepo{DB: tx}
			user := createUser(t, tx)
			tier := models.TierMicro
			_, err := repo.UpsertInfluencer(t.Context(), models.InfluencerProfile{
				UserID:             user.ID,
				InstagramUsername:  ptr("creator"),
				Categories:         []string{"beauty", "travel"},
				FollowerTier:       &tier,
				InstagramFollowers: ptr(int32(25000)),
			})
			require.NoError(t, err)

			got, err := repo.GetProfile(t.Context(), user.ID, models.RoleInfluencer)

			require.NoError(t, err)
			influencer, ok := got.(*models.InfluencerProfile)
			require.True(t, ok)
			assert.Equal(t, []string{"beauty", "travel"}, influencer.Categories)
			require.NotNil(t, influencer.FollowerTier)
			assert.Equal(t, models.TierMicro, *influencer.FollowerTier)
			assert.Equal(t, int32(25000), *influencer.InstagramFollowers)
			assert.Nil(t, influencer.PortfolioURL)
		})
	})

	t.Run("no profile yet", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := ProfileRepo{DB: tx}

			got, err := repo.GetProfile(t.Context(), uuid.New(), models.RoleBrand)
			require.NoError(t, err)
			assert.Nil(t, got)

			got, err = repo.GetProfile(t.Context(), uuid.New(), models.RoleUnset)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	})
}
