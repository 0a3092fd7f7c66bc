// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package web exposes the HTTP surface: the chat endpoint driving the
// pipeline and the admin dashboard's data endpoints.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/AleutianAI/cupcakery-crm/services/crm"
	"github.com/AleutianAI/cupcakery-crm/services/crm/notify"
	"github.com/AleutianAI/cupcakery-crm/services/crm/store"
)

// chatFallbackReply is returned whenever the pipeline faults. The chat
// boundary never surfaces an exception to the caller.
const chatFallbackReply = "I'm sorry, I'm having trouble processing your request right now. Please try again later."

// decimalHundred converts an order total in naira to loyalty points.
var decimalHundred = decimal.NewFromInt(100)

// Handlers carries the collaborators the HTTP endpoints need.
//
// Thread Safety: Safe for concurrent use.
type Handlers struct {
	Pipeline *crm.Pipeline
	Store    store.Store
	Notifier notify.Notifier
	Logger   *slog.Logger

	// ErrorLogPath is the local file pipeline faults are appended to.
	ErrorLogPath string
}

// NewHandlers builds the handler set.
func NewHandlers(pipeline *crm.Pipeline, st store.Store, notifier notify.Notifier, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		Pipeline:     pipeline,
		Store:        st,
		Notifier:     notifier,
		Logger:       logger,
		ErrorLogPath: "server_errors.log",
	}
}

// =============================================================================
// Chat
// =============================================================================

// ChatRequest is the inbound chat payload.
type ChatRequest struct {
	UserID      string        `json:"user_id" binding:"required"`
	Message     string        `json:"message" binding:"required"`
	ChatHistory []crm.Message `json:"chat_history"`
}

// ChatResponse is the chat reply payload.
type ChatResponse struct {
	UserID   string `json:"user_id"`
	Response string `json:"response"`
}

// Chat handles POST /api/chat.
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and message are required"})
		return
	}

	response, err := h.Pipeline.Handle(c.Request.Context(), req.UserID, req.Message, req.ChatHistory)
	if err != nil {
		h.Logger.Error("pipeline fault",
			slog.String("user_id", req.UserID),
			slog.Any("error", err))
		h.appendErrorLog(err)
		c.JSON(http.StatusOK, ChatResponse{UserID: req.UserID, Response: chatFallbackReply})
		return
	}
	c.JSON(http.StatusOK, ChatResponse{UserID: req.UserID, Response: response})
}

// appendErrorLog records pipeline faults in a local file the vendor can
// inspect without log infrastructure. Best-effort.
func (h *Handlers) appendErrorLog(cause error) {
	f, err := os.OpenFile(h.ErrorLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "\n--- ERROR ---\n%v\n", cause)
}

// =============================================================================
// Dashboard data
// =============================================================================

// Health handles GET /api/health.
func (h *Handlers) Health(c *gin.Context) {
	brand := os.Getenv("BRAND_NAME")
	if brand == "" {
		brand = "Ellas Cupcakery"
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "brand": brand})
}

// Menu handles GET /api/data/menu, keyed by item ID.
func (h *Handlers) Menu(c *gin.Context) {
	items, err := h.Store.ListMenu(c.Request.Context())
	if err != nil {
		h.storeError(c, err)
		return
	}
	out := make(map[string]store.MenuItem, len(items))
	for _, m := range items {
		out[m.ID] = m
	}
	c.JSON(http.StatusOK, out)
}

// Orders handles GET /api/data/orders, keyed by order ID.
func (h *Handlers) Orders(c *gin.Context) {
	orders, err := h.Store.ListOrders(c.Request.Context())
	if err != nil {
		h.storeError(c, err)
		return
	}
	out := make(map[string]store.Order, len(orders))
	for _, o := range orders {
		out[o.ID] = o
	}
	c.JSON(http.StatusOK, out)
}

// Customers handles GET /api/data/customers, keyed by customer ID.
func (h *Handlers) Customers(c *gin.Context) {
	customers, err := h.Store.ListCustomers(c.Request.Context())
	if err != nil {
		h.storeError(c, err)
		return
	}
	out := make(map[string]store.Customer, len(customers))
	for _, cust := range customers {
		out[cust.ID] = cust
	}
	c.JSON(http.StatusOK, out)
}

// Feedback handles GET /api/data/feedback.
func (h *Handlers) Feedback(c *gin.Context) {
	entries, err := h.Store.ListFeedback(c.Request.Context())
	if err != nil {
		h.storeError(c, err)
		return
	}
	if entries == nil {
		entries = []store.FeedbackEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// Settings handles GET /api/site/settings.
func (h *Handlers) Settings(c *gin.Context) {
	settings, err := h.Store.GetSettings(c.Request.Context())
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handlers) storeError(c *gin.Context, err error) {
	h.Logger.Error("store access failed", slog.Any("error", err))
	c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "storage unavailable"})
}

// =============================================================================
// Dashboard mutations
// =============================================================================

// UpdateRequest mutates one record in a collection.
type UpdateRequest struct {
	Collection string         `json:"collection" binding:"required"`
	ItemID     string         `json:"item_id"`
	Updates    map[string]any `json:"updates" binding:"required"`
}

// Update handles POST /api/data/update for menu, orders, and site settings.
func (h *Handlers) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "collection and updates are required"})
		return
	}
	ctx := c.Request.Context()

	switch strings.ToLower(req.Collection) {
	case "menu":
		item, found, err := h.Store.GetMenuItem(ctx, req.ItemID)
		if err != nil {
			h.storeError(c, err)
			return
		}
		if !found {
			break
		}
		if err := mergeRecord(&item, req.Updates); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
			return
		}
		item.ID = req.ItemID
		if err := h.Store.SetMenuItem(ctx, item); err != nil {
			h.storeError(c, err)
			return
		}
		h.persist(ctx)
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": fmt.Sprintf("Menu item %s updated.", req.ItemID)})
		return

	case "orders":
		if ok := h.updateOrder(c, req); ok {
			return
		}

	case "site_settings":
		settings, err := h.Store.GetSettings(ctx)
		if err != nil {
			h.storeError(c, err)
			return
		}
		if err := mergeRecord(&settings, req.Updates); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
			return
		}
		if err := h.Store.SetSettings(ctx, settings); err != nil {
			h.storeError(c, err)
			return
		}
		h.persist(ctx)
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Site settings updated."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "error", "message": "Item or Collection not found."})
}

// updateOrder applies an order mutation with the loyalty award and status
// notification side effects. Returns false when the order does not exist so
// the caller can emit the shared not-found reply.
func (h *Handlers) updateOrder(c *gin.Context, req UpdateRequest) bool {
	ctx := c.Request.Context()
	order, found, err := h.Store.GetOrder(ctx, req.ItemID)
	if err != nil {
		h.storeError(c, err)
		return true
	}
	if !found {
		return false
	}

	if err := mergeRecord(&order, req.Updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return true
	}
	order.ID = req.ItemID

	newStatus, _ := req.Updates["status"].(string)
	newPayment, _ := req.Updates["payment_status"].(string)

	// Loyalty is credited once per order, on payment confirmation. The
	// points_awarded flag makes re-applying the same update a no-op.
	paymentConfirmed := newPayment == store.PaymentPaid ||
		(newStatus == store.StatusProcessing && order.PaymentStatus == store.PaymentPaid)
	if paymentConfirmed && !order.PointsAwarded {
		points := int(order.Total.Div(decimalHundred).IntPart())
		customer, custFound, err := h.Store.GetCustomer(ctx, order.CustomerID)
		if err != nil {
			h.storeError(c, err)
			return true
		}
		if custFound && points > 0 {
			customer.LoyaltyPoints += points
			if err := h.Store.SetCustomer(ctx, customer); err != nil {
				h.storeError(c, err)
				return true
			}
			order.PointsAwarded = true
			h.Logger.Info("loyalty points awarded",
				slog.String("order_id", order.ID),
				slog.String("customer_id", order.CustomerID),
				slog.Int("points", points))
		}
	}

	if err := h.Store.SetOrder(ctx, order); err != nil {
		h.storeError(c, err)
		return true
	}
	h.persist(ctx)

	if newStatus != "" {
		h.notifyStatusChange(ctx, order, newStatus)
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": fmt.Sprintf("Order %s updated.", req.ItemID)})
	return true
}

// notifyStatusChange emails the customer about a status transition.
// Best-effort; a failed send never fails the update.
func (h *Handlers) notifyStatusChange(ctx context.Context, order store.Order, newStatus string) {
	customer, found, err := h.Store.GetCustomer(ctx, order.CustomerID)
	if err != nil || !found || customer.Email == "" {
		return
	}
	name := customer.Name
	if name == "" {
		name = "Customer"
	}
	subject := fmt.Sprintf("Order Update: %s", order.ID)
	body := fmt.Sprintf("Hello %s,\n\nYour order %s status has been updated to: %s.\n\nThank you for choosing Ellas Cupcakery!",
		name, order.ID, newStatus)
	if err := h.Notifier.Send(ctx, customer.Email, subject, body); err != nil {
		h.Logger.Warn("status email failed",
			slog.String("order_id", order.ID),
			slog.Any("error", err))
	}
}

// AddRequest inserts one record into a collection.
type AddRequest struct {
	Collection string         `json:"collection" binding:"required"`
	Item       map[string]any `json:"item" binding:"required"`
}

// Add handles POST /api/data/add for menu items and customers.
func (h *Handlers) Add(c *gin.Context) {
	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "collection and item are required"})
		return
	}
	ctx := c.Request.Context()

	switch strings.ToLower(req.Collection) {
	case "menu":
		id, _ := req.Item["id"].(string)
		if id == "" {
			c.JSON(http.StatusOK, gin.H{"status": "error", "message": "Item ID already exists or missing."})
			return
		}
		if _, exists, err := h.Store.GetMenuItem(ctx, id); err != nil {
			h.storeError(c, err)
			return
		} else if exists {
			c.JSON(http.StatusOK, gin.H{"status": "error", "message": "Item ID already exists or missing."})
			return
		}
		var item store.MenuItem
		if err := decodeRecord(req.Item, &item); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
			return
		}
		item.ID = id
		if err := h.Store.SetMenuItem(ctx, item); err != nil {
			h.storeError(c, err)
			return
		}
		h.persist(ctx)
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": fmt.Sprintf("Menu item %s added.", id)})

	case "customers":
		h.addCustomer(c, req.Item)

	default:
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": "Invalid collection."})
	}
}

// addCustomer inserts or updates a customer, merging any existing records
// that share the incoming email: loyalty points are summed, preferences
// unioned, the newest last-order date kept, the name backfilled, the old
// records' orders reassigned, and the old records deleted.
func (h *Handlers) addCustomer(c *gin.Context, item map[string]any) {
	ctx := c.Request.Context()

	var incoming store.Customer
	if err := decodeRecord(item, &incoming); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if incoming.ID == "" {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": "Customer ID missing."})
		return
	}

	emailIn := strings.ToLower(strings.TrimSpace(incoming.Email))
	var duplicates []store.Customer
	if emailIn != "" {
		all, err := h.Store.ListCustomers(ctx)
		if err != nil {
			h.storeError(c, err)
			return
		}
		for _, existing := range all {
			if existing.ID != incoming.ID &&
				strings.ToLower(strings.TrimSpace(existing.Email)) == emailIn {
				duplicates = append(duplicates, existing)
			}
		}
	}

	for _, old := range duplicates {
		incoming.LoyaltyPoints += old.LoyaltyPoints
		for _, p := range old.Preferences {
			if !containsString(incoming.Preferences, p) {
				incoming.Preferences = append(incoming.Preferences, p)
			}
		}
		// ISO-8601 timestamps compare lexically.
		if old.LastOrderDate > incoming.LastOrderDate {
			incoming.LastOrderDate = old.LastOrderDate
		}
		if incoming.Name == "" {
			incoming.Name = old.Name
		}
	}

	if len(duplicates) > 0 {
		orders, err := h.Store.ListOrders(ctx)
		if err != nil {
			h.storeError(c, err)
			return
		}
		for _, old := range duplicates {
			for _, o := range orders {
				if o.CustomerID == old.ID {
					o.CustomerID = incoming.ID
					if err := h.Store.SetOrder(ctx, o); err != nil {
						h.storeError(c, err)
						return
					}
				}
			}
			if err := h.Store.DeleteCustomer(ctx, old.ID); err != nil {
				h.storeError(c, err)
				return
			}
		}
	}

	if err := h.Store.SetCustomer(ctx, incoming); err != nil {
		h.storeError(c, err)
		return
	}
	h.persist(ctx)
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": fmt.Sprintf("Customer %s added/updated.", incoming.ID)})
}

// DeleteRequest removes one record from a collection.
type DeleteRequest struct {
	Collection string `json:"collection" binding:"required"`
	ItemID     string `json:"item_id" binding:"required"`
}

// Delete handles POST /api/data/delete. Menu only; other collections are
// either append-only or merged rather than deleted.
func (h *Handlers) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "collection and item_id are required"})
		return
	}
	ctx := c.Request.Context()

	if strings.ToLower(req.Collection) != "menu" {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": "Delete not supported for this collection."})
		return
	}
	_, found, err := h.Store.GetMenuItem(ctx, req.ItemID)
	if err != nil {
		h.storeError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": "Item ID not found."})
		return
	}
	if err := h.Store.DeleteMenuItem(ctx, req.ItemID); err != nil {
		h.storeError(c, err)
		return
	}
	h.persist(ctx)
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": fmt.Sprintf("Menu item %s deleted.", req.ItemID)})
}

func (h *Handlers) persist(ctx context.Context) {
	if err := h.Store.Persist(ctx); err != nil {
		h.Logger.Warn("persist failed", slog.Any("error", err))
	}
}

// =============================================================================
// Record merging helpers
// =============================================================================

// mergeRecord overlays sparse JSON updates onto a typed record.
func mergeRecord[T any](record *T, updates map[string]any) error {
	current, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("web: encoding record: %w", err)
	}
	asMap := map[string]any{}
	if err := json.Unmarshal(current, &asMap); err != nil {
		return fmt.Errorf("web: decoding record: %w", err)
	}
	for k, v := range updates {
		asMap[k] = v
	}
	return decodeRecord(asMap, record)
}

// decodeRecord converts a JSON-shaped map into a typed record.
func decodeRecord[T any](m map[string]any, out *T) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("web: encoding update: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("web: invalid record shape: %w", err)
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
