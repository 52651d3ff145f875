package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kampayn/kampayn-be/internal/models"
	"github.com/Kampayn/kampayn-be/internal/testutil"
)

const campaignBody = `{
	"campaign_name": "Serum launch",
	"campaign_type": "product_launch",
	"product_story": "Our new serum",
	"key_message": "Glow every day",
	"content_dos": ["show the bottle"],
	"content_donts": ["mention competitors"],
	"platforms": ["instagram"],
	"influencer_tiers": ["micro"],
	"content_types": ["reel"],
	"influencers_needed": 3,
	"budget": 1500000.50,
	"payment_method": "bank_transfer",
	"start_date": "2026-03-01",
	"end_date": "2026-03-31"
}`

type campaignResponse struct {
	Data struct {
		Campaign map[string]any `json:"campaign"`
	} `json:"data"`
}

func Test_CampaignHandlers(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Register account with completed brand profile
	brand := func(c client, email string) string {
		access := c.signup("Acme", email)
		code, body := c.do(http.MethodPost, "/users/complete-profile", access, `{"role": "brand", "company": "Acme"}`)
		require.Equalf(c.t, http.StatusCreated, code, "complete profile failed: %s", body)
		return access
	}

	create := func(c client, access string) map[string]any {
		code, body := c.do(http.MethodPost, "/campaigns", access, campaignBody)
		require.Equalf(c.t, http.StatusCreated, code, "create campaign failed: %s", body)

		var resp campaignResponse
		require.NoError(c.t, json.Unmarshal([]byte(body), &resp))
		return resp.Data.Campaign
	}

	t.Run("create ok", func(t *testing.T) {
		withServer(t, pg, func(c client) {
			access := brand(c, "brand@x.com")

			got := create(c, access)

			assert.Equal(t, "Serum launch", got["campaign_name"])
			assert.Equal(t, "1500000.5", got["budget"])
			assert.Equal(t, "IDR", got["currency"])
			assert.Equal(t, "draft", got["status"])
			assert.Equal(t, "2026-03-01", got["start_date"])
		})
	})

	t.Run("create by not brand forbidden", func(t *testing.T) {
		withServer(t, pg, func(c client) {
			access := c.signup("Ina", "ina@x.com")

			code, body := c.do(http.MethodPost, "/campaigns", access, campaignBody)

			require.Equal(t, http.StatusForbidden, code)
			require.JSONEq(t, `{"status": "error", "message": "only brands can manage campaigns"}`, body)
		})
	})

	t.Run("create with wrong dates", func(t *testing.T) {
		withServer(t, pg, func(c client) {
			access := brand(c, "brand@x.com")
			var req map[string]any
			require.NoError(t, json.Unmarshal([]byte(campaignBody), &req))
			req["end_date"] = "2026-02-01"
			body, err := json.Marshal(req)
			require.NoError(t, err)

			code, resp := c.do(http.MethodPost, "/campaigns", access, string(body))

			require.Equal(t, http.StatusBadRequest, code)
			require.JSONEq(t, `{"status": "error", "message": "end_date must be after start_date"}`, resp)
		})
	})

	t.Run("create validation", func(t *testing.T) {
		withServer(t, pg, func(c client) {
			access := brand(c, "brand@x.com")

			code, body := c.do(http.MethodPost, "/campaigns", access, `{"campaign_name": "Serum launch", "campaign_type": "tv", "budget": 0}`)

			require.Equal(t, http.StatusBadRequest, code)
			var resp struct {
				Errors map[string]string `json:"errors"`
			}
			require.NoError(t, json.Unmarshal([]byte(body), &resp))
			assert.Equal(t, "Value must be one of: brand_awareness product_launch promo_sale other", resp.Errors["campaign_type"])
			assert.Equal(t, "This field is required", resp.Errors["budget"])
			assert.Equal(t, "This field is required", resp.Errors["start_date"])
			assert.Contains(t, resp.Errors, "content_dos")
		})
	})

	t.Run("commercial terms hidden from others", func(t *testing.T) {
		withServer(t, pg, func(c client) {
			owner := brand(c, "brand@x.com")
			created := create(c, owner)
			other := c.signup("Ina", "ina@x.com")

			code, body := c.do(http.MethodGet, "/campaigns/"+created["id"].(string), other, "")
			require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)
			var resp campaignResponse
			require.NoError(t, json.Unmarshal([]byte(body), &resp))
			assert.NotContains(t, resp.Data.Campaign, "budget")
			assert.NotContains(t, resp.Data.Campaign, "currency")
			assert.NotContains(t, resp.Data.Campaign, "payment_method")

			code, body = c.do(http.MethodGet, "/campaigns/"+created["id"].(string), owner, "")
			require.Equal(t, http.StatusOK, code)
			require.NoError(t, json.Unmarshal([]byte(body), &resp))
			assert.Equal(t, "1500000.5", resp.Data.Campaign["budget"])
			assert.Equal(t, "bank_transfer", resp.Data.Campaign["payment_method"])
		})
	})

	t.Run("get missing campaign", func(t *testing.T) {
		withServer(t, pg, func(c client) {
			access := c.signup("Ina", "ina@x.com")

			code, body := c.do(http.MethodGet, "/campaigns/1c9f3b0e-7d3c-4a39-9b55-3a4c1e0f0001", access, "")

			require.Equal(t, http.StatusNotFound, code)
			require.JSONEq(t, `{"status": "error", "message": "campaign not found"}`, body)
		})
	})

	t.Run("list and my", func(t *testing.T) {
		withServer(t, pg, func(c client) {
			acme := brand(c, "acme@x.com")
			globex := brand(c, "globex@x.com")
			create(c, acme)
			create(c, acme)
			create(c, globex)

			code, body := c.do(http.MethodGet, "/campaigns?limit=2&sort_order=ASC", acme, "")
			require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)
			var resp struct {
				Data campaignListView `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(body), &resp))
			assert.Len(t, resp.Data.Campaigns, 2)
			assert.Equal(t, paginationView{
				CurrentPage:  1,
				TotalPages:   2,
				TotalItems:   3,
				ItemsPerPage: 2,
				HasNext:      true,
				HasPrev:      false,
			}, resp.Data.Pagination)
			assert.Equal(t, "asc", resp.Data.Filters.SortOrder)

			code, body = c.do(http.MethodGet, "/campaigns/my", globex, "")
			require.Equal(t, http.StatusOK, code)
			require.NoError(t, json.Unmarshal([]byte(body), &resp))
			require.Len(t, resp.Data.Campaigns, 1)
			assert.NotNil(t, resp.Data.Campaigns[0].Budget, "owner sees commercial terms")
			assert.Equal(t, 1, resp.Data.Pagination.TotalItems)
		})
	})

	t.Run("list rejects bad query", func(t *testing.T) {
		withServer(t, pg, func(c client) {
			access := c.signup("Ina", "ina@x.com")

			code, body := c.do(http.MethodGet, "/campaigns?limit=500&sort_by=password", access, "")
			require.Equal(t, http.StatusBadRequest, code)
			require.JSONEq(t, `{
				"status": "error",
				"message": "Request validation failed",
				"errors": {
					"limit": "Value must be at most 100",
					"sort_by": "Value must be one of: created_at updated_at campaign_name start_date end_date budget"
				}
			}`, body)

			code, body = c.do(http.MethodGet, "/campaigns?page=first", access, "")
			require.Equal(t, http.StatusBadRequest, code)
			require.JSONEq(t, `{"status": "error", "message": "Invalid value for 'page'"}`, body)
		})
	})

	t.Run("budget order only in my campaigns", func(t *testing.T) {
		withServer(t, pg, func(c client) {
			acme := brand(c, "acme@x.com")
			create(c, acme)

			code, body := c.do(http.MethodGet, "/campaigns?sort_by=budget", acme, "")
			require.Equal(t, http.StatusBadRequest, code)
			require.JSONEq(t, `{"status": "error", "message": "sorting by budget is allowed only for your own campaigns"}`, body)

			code, body = c.do(http.MethodGet, "/campaigns/my?sort_by=budget&sort_order=desc", acme, "")
			require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)
		})
	})

	t.Run("update by owner", func(t *testing.T) {
		withServer(t, pg, func(c client) {
			access := brand(c, "brand@x.com")
			created := create(c, access)

			code, body := c.do(http.MethodPut, "/campaigns/"+created["id"].(string), access, `{"campaign_name": "Serum relaunch", "status": "published"}`)

			require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)
			var resp campaignResponse
			require.NoError(t, json.Unmarshal([]byte(body), &resp))
			assert.Equal(t, "Serum relaunch", resp.Data.Campaign["campaign_name"])
			assert.Equal(t, "published", resp.Data.Campaign["status"])
			assert.Equal(t, "Glow every day", resp.Data.Campaign["key_message"], "absent fields must be kept")
		})
	})

	t.Run("update checks", func(t *testing.T) {
		withServer(t, pg, func(c client) {
			owner := brand(c, "brand@x.com")
			created := create(c, owner)
			path := "/campaigns/" + created["id"].(string)

			code, body := c.do(http.MethodPut, path, owner, `{}`)
			require.Equal(t, http.StatusBadRequest, code)
			require.JSONEq(t, `{"status": "error", "message": "At least one field must be provided"}`, body)

			code, _ = c.do(http.MethodPut, path, owner, `{"end_date": "2026-01-01"}`)
			require.Equal(t, http.StatusBadRequest, code, "merged dates must be checked")

			other := brand(c, "other@x.com")
			code, body = c.do(http.MethodPut, path, other, `{"campaign_name": "Mine now"}`)
			require.Equal(t, http.StatusForbidden, code)
			require.JSONEq(t, `{"status": "error", "message": "you can only modify your own campaigns"}`, body)
		})
	})

	t.Run("delete", func(t *testing.T) {
		withServer(t, pg, func(c client) {
			owner := brand(c, "brand@x.com")
			created := create(c, owner)
			path := "/campaigns/" + created["id"].(string)

			code, _ := c.do(http.MethodPut, path, owner, `{"status": "active"}`)
			require.Equal(t, http.StatusOK, code)
			code, body := c.do(http.MethodDelete, path, owner, "")
			require.Equal(t, http.StatusConflict, code)
			require.JSONEq(t, `{"status": "error", "message": "cannot delete an active campaign"}`, body)

			code, _ = c.do(http.MethodPut, path, owner, `{"status": "completed"}`)
			require.Equal(t, http.StatusOK, code)
			code, body = c.do(http.MethodDelete, path, owner, "")
			require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)
			require.JSONEq(t, `{"status": "success", "message": "Campaign deleted successfully"}`, body)

			code, _ = c.do(http.MethodGet, path, owner, "")
			require.Equal(t, http.StatusNotFound, code)
		})
	})
}

func TestBindListQuery(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		w := httptest.NewRecorder()

		lq, ok := bindListQuery(w, url.Values{})

		require.True(t, ok)
		require.Equal(t, listQuery{Page: 1, Limit: 10, SortBy: "created_at", SortOrder: "desc"}, lq)
		require.Equal(t, models.CampaignFilter{SortBy: models.SortByCreatedAt, SortDesc: true, Page: 1, Limit: 10}, lq.filter())
	})

	t.Run("filters", func(t *testing.T) {
		w := httptest.NewRecorder()

		lq, ok := bindListQuery(w, url.Values{
			"status":        {"published"},
			"campaign_type": {"promo_sale"},
			"search":        {"  serum "},
			"sort_by":       {"budget"},
			"sort_order":    {"ASC"},
			"page":          {"3"},
		})

		require.True(t, ok)
		f := lq.filter()
		require.Equal(t, models.CampaignPublished, *f.Status)
		require.Equal(t, models.CampaignPromoSale, *f.Type)
		require.Equal(t, "serum", f.Search)
		require.Equal(t, models.SortByBudget, f.SortBy)
		require.False(t, f.SortDesc)
		require.Equal(t, 3, f.Page)
	})

	t.Run("unknown status", func(t *testing.T) {
		w := httptest.NewRecorder()

		_, ok := bindListQuery(w, url.Values{"status": {"archived"}})

		require.False(t, ok)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateCampaignRequest_Patch(t *testing.T) {
	var req updateCampaignRequest
	require.NoError(t, json.Unmarshal([]byte(`{"content_dos": [], "budget": "10.555"}`), &req))

	patch, changed := req.patch()

	require.True(t, changed)
	require.Nil(t, patch.ContentDos, "empty list must not clear column")
	require.Equal(t, "10.56", patch.Budget.String())

	_, changed = updateCampaignRequest{}.patch()
	require.False(t, changed)
}
