// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/cupcakery-crm/services/crm"
	"github.com/AleutianAI/cupcakery-crm/services/crm/notify"
	"github.com/AleutianAI/cupcakery-crm/services/crm/store"
	"github.com/AleutianAI/cupcakery-crm/services/llm"
)

// stubLLM satisfies llm.Client without any provider.
type stubLLM struct {
	content string
	err     error
}

func (s *stubLLM) Chat(_ context.Context, _ []llm.Message, _ llm.GenerationParams) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.content, nil
}

func (s *stubLLM) ChatWithTools(_ context.Context, _ []llm.Message, _ llm.GenerationParams, _ []llm.ToolDef) (*llm.ChatWithToolsResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ChatWithToolsResult{Content: s.content, StopReason: "end"}, nil
}

type testEnv struct {
	router   *gin.Engine
	store    *store.MemoryStore
	notifier *notify.LogNotifier
}

func newTestEnv(t *testing.T, client llm.Client) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewSeededMemoryStore()
	notifier := &notify.LogNotifier{}
	pipeline := crm.NewDefaultPipeline(st, client, notifier, slog.Default())

	handlers := NewHandlers(pipeline, st, notifier, slog.Default())
	handlers.ErrorLogPath = filepath.Join(t.TempDir(), "server_errors.log")

	router := gin.New()
	api := router.Group("/api")
	RegisterRoutes(api, handlers)
	return &testEnv{router: router, store: st, notifier: notifier}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// =============================================================================
// Chat and health
// =============================================================================

func TestHealth(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	w := env.do(t, http.MethodGet, "/api/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Ellas Cupcakery", body["brand"])
}

func TestChatMenuQuery(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	w := env.do(t, http.MethodPost, "/api/chat", map[string]any{
		"user_id": store.RestrictedTestCustomerID,
		"message": "show me the menu",
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, store.RestrictedTestCustomerID, body["user_id"])
	assert.Contains(t, body["response"], "Red Velvet Cupcake - ₦850.00")
}

func TestChatMissingFields(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	w := env.do(t, http.MethodPost, "/api/chat", map[string]any{"message": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatPipelineFaultReturnsFallback(t *testing.T) {
	// "status" suppresses every deterministic guard, so the query reaches the
	// broken LLM and the pipeline faults.
	env := newTestEnv(t, &stubLLM{err: errors.New("all providers down")})
	w := env.do(t, http.MethodPost, "/api/chat", map[string]any{
		"user_id": store.RestrictedTestCustomerID,
		"message": "what is my order status?",
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, chatFallbackReply, body["response"])
}

// =============================================================================
// Dashboard reads
// =============================================================================

func TestMenuKeyedByID(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	w := env.do(t, http.MethodGet, "/api/data/menu", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]store.MenuItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 5)
	assert.Equal(t, "Red Velvet Cupcake", out["P001"].Name)
}

func TestOrdersKeyedByID(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	w := env.do(t, http.MethodGet, "/api/data/orders", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]store.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Contains(t, out, "O-202501")
	assert.Equal(t, store.RestrictedTestCustomerID, out["O-202501"].CustomerID)
}

func TestFeedbackEmptyListNotNull(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	w := env.do(t, http.MethodGet, "/api/data/feedback", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestSiteSettings(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	w := env.do(t, http.MethodGet, "/api/site/settings", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var out store.SiteSettings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "Access Bank", out.PaymentBankName)
	assert.Equal(t, 2000, out.OfferPointsThreshold)
}

// =============================================================================
// Dashboard mutations
// =============================================================================

func TestUpdateMenuItem(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	w := env.do(t, http.MethodPost, "/api/data/update", map[string]any{
		"collection": "menu",
		"item_id":    "P003",
		"updates":    map[string]any{"is_available": true},
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "success", body["status"])

	item, found, err := env.store.GetMenuItem(context.Background(), "P003")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, item.IsAvailable)
	// Untouched fields survive the sparse update.
	assert.Equal(t, "Vegan Lemon Loaf", item.Name)
}

func TestUpdateOrderAwardsLoyaltyOnce(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	ctx := context.Background()

	before, _, err := env.store.GetCustomer(ctx, store.RestrictedTestCustomerID)
	require.NoError(t, err)

	// The seeded order is already Paid, so moving it to Processing confirms
	// payment and credits total/100 points.
	update := map[string]any{
		"collection": "orders",
		"item_id":    "O-202501",
		"updates":    map[string]any{"status": store.StatusProcessing},
	}
	w := env.do(t, http.MethodPost, "/api/data/update", update)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", decodeBody(t, w)["status"])

	after, _, err := env.store.GetCustomer(ctx, store.RestrictedTestCustomerID)
	require.NoError(t, err)
	assert.Equal(t, before.LoyaltyPoints+55, after.LoyaltyPoints)

	order, _, err := env.store.GetOrder(ctx, "O-202501")
	require.NoError(t, err)
	assert.Equal(t, store.StatusProcessing, order.Status)
	assert.True(t, order.PointsAwarded)

	// Replaying the update must not credit again.
	w = env.do(t, http.MethodPost, "/api/data/update", update)
	require.Equal(t, http.StatusOK, w.Code)
	again, _, err := env.store.GetCustomer(ctx, store.RestrictedTestCustomerID)
	require.NoError(t, err)
	assert.Equal(t, after.LoyaltyPoints, again.LoyaltyPoints)
}

func TestUpdateOrderSendsStatusEmail(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	w := env.do(t, http.MethodPost, "/api/data/update", map[string]any{
		"collection": "orders",
		"item_id":    "O-202501",
		"updates":    map[string]any{"status": store.StatusCompleted},
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, env.notifier.Sent, 1)
	mail := env.notifier.Sent[0]
	assert.Equal(t, "bola@example.com", mail.To)
	assert.Equal(t, "Order Update: O-202501", mail.Subject)
	assert.Contains(t, mail.Body, "Hello Bola Alade,")
	assert.Contains(t, mail.Body, "has been updated to: Completed.")
}

func TestUpdateUnknownCollection(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	w := env.do(t, http.MethodPost, "/api/data/update", map[string]any{
		"collection": "promotions",
		"item_id":    "S001",
		"updates":    map[string]any{"active": false},
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Item or Collection not found.", body["message"])
}

func TestUpdateMissingOrder(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	w := env.do(t, http.MethodPost, "/api/data/update", map[string]any{
		"collection": "orders",
		"item_id":    "O-999",
		"updates":    map[string]any{"status": store.StatusProcessing},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Item or Collection not found.", decodeBody(t, w)["message"])
}

func TestAddMenuItem(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	w := env.do(t, http.MethodPost, "/api/data/add", map[string]any{
		"collection": "menu",
		"item": map[string]any{
			"id":           "P006",
			"name":         "Banana Bread Slice",
			"price":        "700",
			"is_available": true,
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", decodeBody(t, w)["status"])

	item, found, err := env.store.GetMenuItem(context.Background(), "P006")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Banana Bread Slice", item.Name)
}

func TestAddMenuItemDuplicateID(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	w := env.do(t, http.MethodPost, "/api/data/add", map[string]any{
		"collection": "menu",
		"item":       map[string]any{"id": "P001", "name": "Clone"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Item ID already exists or missing.", body["message"])
}

func TestAddCustomerMergesDuplicateEmail(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	ctx := context.Background()

	// Same email as the seeded demo customer, different ID and casing.
	w := env.do(t, http.MethodPost, "/api/data/add", map[string]any{
		"collection": "customers",
		"item": map[string]any{
			"id":             "2348099998888",
			"name":           "",
			"email":          " BOLA@example.com ",
			"preferences":    []string{"Coffee Lover", "Vegan"},
			"loyalty_points": 100,
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Customer 2348099998888 added/updated.", body["message"])

	merged, found, err := env.store.GetCustomer(ctx, "2348099998888")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 920, merged.LoyaltyPoints)
	assert.Equal(t, "Bola Alade", merged.Name)
	assert.ElementsMatch(t,
		[]string{"Coffee Lover", "Vegan", "Chocolate", "No Nuts"},
		merged.Preferences)

	_, found, err = env.store.GetCustomer(ctx, store.RestrictedTestCustomerID)
	require.NoError(t, err)
	assert.False(t, found, "old record must be deleted after the merge")

	order, _, err := env.store.GetOrder(ctx, "O-202501")
	require.NoError(t, err)
	assert.Equal(t, "2348099998888", order.CustomerID, "orders follow the surviving customer")
}

func TestAddCustomerMissingID(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	w := env.do(t, http.MethodPost, "/api/data/add", map[string]any{
		"collection": "customers",
		"item":       map[string]any{"name": "Nameless", "email": "x@example.com"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Customer ID missing.", decodeBody(t, w)["message"])
}

func TestAddInvalidCollection(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	w := env.do(t, http.MethodPost, "/api/data/add", map[string]any{
		"collection": "orders",
		"item":       map[string]any{"id": "O-X"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Invalid collection.", decodeBody(t, w)["message"])
}

func TestDeleteMenuItem(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	w := env.do(t, http.MethodPost, "/api/data/delete", map[string]any{
		"collection": "menu",
		"item_id":    "P005",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Menu item P005 deleted.", decodeBody(t, w)["message"])

	_, found, err := env.store.GetMenuItem(context.Background(), "P005")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteMenuItemNotFound(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	w := env.do(t, http.MethodPost, "/api/data/delete", map[string]any{
		"collection": "menu",
		"item_id":    "P999",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Item ID not found.", decodeBody(t, w)["message"])
}

func TestDeleteUnsupportedCollection(t *testing.T) {
	env := newTestEnv(t, &stubLLM{})
	w := env.do(t, http.MethodPost, "/api/data/delete", map[string]any{
		"collection": "customers",
		"item_id":    store.RestrictedTestCustomerID,
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Delete not supported for this collection.", decodeBody(t, w)["message"])
}
