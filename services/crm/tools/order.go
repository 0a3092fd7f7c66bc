// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AleutianAI/cupcakery-crm/services/crm/notify"
	"github.com/AleutianAI/cupcakery-crm/services/crm/store"
	"github.com/AleutianAI/cupcakery-crm/services/llm"
)

// ProcessOrder creates a new order record in Pending Payment state.
//
// Description:
//
//	The single tool with real money consequences, so every precondition
//	failure is a structured error the synthesizer renders verbatim.
//	Item references resolve by ID first, then exact name, then substring
//	(accepted only when unambiguous). Totals are computed from current menu
//	prices into the order's frozen line prices. Payment is never processed
//	here; loyalty points are never awarded here. On success a vendor email
//	is attempted and ignored on failure.
//
// Thread Safety: Safe for concurrent use.
type ProcessOrder struct {
	Store    store.Store
	Notifier notify.Notifier
	Logger   *slog.Logger
}

func (t *ProcessOrder) Name() string { return NameProcessOrder }

func (t *ProcessOrder) Def() llm.ToolDef {
	return llm.ToolDef{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        NameProcessOrder,
			Description: "Creates a new order record. Required: 'items' list with 'item_id' or 'name'. Payment is NOT processed here; the order is marked 'Pending Payment'.",
			Parameters: llm.ToolParameters{
				Type: "object",
				Properties: map[string]llm.ToolParamDef{
					"user_id": {Type: "string", Description: "The customer's phone-number identifier."},
					"items": {
						Type:        "array",
						Description: "Order lines. Each has item_id or name, and an optional quantity (default 1).",
						Items: &llm.ToolParamDef{
							Type: "object",
						},
					},
				},
				Required: []string{"user_id", "items"},
			},
		},
	}
}

func (t *ProcessOrder) Invoke(ctx context.Context, args map[string]any) (any, error) {
	userID := argString(args, "user_id")
	if userID == store.RestrictedTestCustomerID {
		return errorPayload("Test user is restricted from placing orders. Please use your own account."), nil
	}

	menu, err := t.Store.ListMenu(ctx)
	if err != nil {
		return nil, fmt.Errorf("tools: listing menu: %w", err)
	}
	menuByID := make(map[string]store.MenuItem, len(menu))
	for _, m := range menu {
		menuByID[m.ID] = m
	}

	total := decimal.Zero
	var lines []store.OrderItem

	for _, raw := range argItemList(args, "items") {
		itemID := argString(raw, "item_id")

		if _, known := menuByID[itemID]; itemID == "" || !known {
			nameQuery := strings.ToLower(strings.TrimSpace(argString(raw, "name")))

			resolved, errPayload := resolveByName(menu, nameQuery)
			if errPayload != nil {
				return errPayload, nil
			}
			if resolved == "" {
				// Too-short queries are skipped silently; they are noise
				// from the extraction heuristics, not a customer mistake.
				if len(nameQuery) < 2 {
					continue
				}
				return errorPayload(fmt.Sprintf("Item '%s' not found in menu. Please check the name.", argString(raw, "name"))), nil
			}
			itemID = resolved
		}

		menuItem := menuByID[itemID]
		if !menuItem.IsAvailable {
			return errorPayload(fmt.Sprintf("Item %s is currently Out of Stock.", menuItem.Name)), nil
		}

		quantity := argInt(raw["quantity"], 1)
		if quantity < 1 {
			quantity = 1
		}

		total = total.Add(menuItem.Price.Mul(decimal.NewFromInt(int64(quantity))))
		lines = append(lines, store.OrderItem{
			ItemID:       itemID,
			Name:         menuItem.Name,
			Quantity:     quantity,
			PriceAtOrder: menuItem.Price,
		})
	}

	if len(lines) == 0 {
		return errorPayload("No valid items were identified. Please specify the exact menu item name (e.g., 'Red Velvet Cupcake')."), nil
	}

	now := time.Now()
	order := store.Order{
		ID:            fmt.Sprintf("O-%d", now.Unix()),
		CustomerID:    userID,
		Items:         lines,
		Status:        store.StatusPendingPayment,
		PaymentStatus: store.PaymentUnpaid,
		Timestamp:     now.Format(time.RFC3339),
		Total:         total,
	}
	if err := t.Store.SetOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("tools: saving order %s: %w", order.ID, err)
	}

	if err := t.touchCustomer(ctx, userID, order.Timestamp); err != nil {
		return nil, err
	}
	if err := t.Store.Persist(ctx); err != nil {
		return nil, fmt.Errorf("tools: persisting order %s: %w", order.ID, err)
	}

	// Vendor alert is best-effort.
	if t.Notifier != nil {
		body := fmt.Sprintf("Order %s needs attention. Total: %s.", order.ID, store.FormatNaira(total))
		if err := t.Notifier.Send(ctx, notify.ShopOrderEmail, "New Order Received", body); err != nil {
			t.Logger.Warn("new order email failed", slog.String("order_id", order.ID), slog.Any("error", err))
		}
	}

	t.Logger.Info("order placed",
		slog.String("order_id", order.ID),
		slog.String("customer_id", userID),
		slog.String("total", total.StringFixed(2)))

	formatted := store.FormatNaira(total)
	return map[string]any{
		"message":     "Order Placed Successfully.",
		"order_id":    order.ID,
		"total_price": formatted,
		"status":      store.StatusPendingPayment,
		"instruction": fmt.Sprintf("The price of this order is %s. Please kindly make payment to: {bank_details}. Your order will be created upon payment confirmation. Order ID: %s.", formatted, order.ID),
	}, nil
}

// resolveByName maps a lowercased name query to a menu item ID: exact match
// first, then substring. Returns a structured ambiguity error when multiple
// items contain the query, and "" when nothing matched or the query is too
// short to trust.
func resolveByName(menu []store.MenuItem, nameQuery string) (string, map[string]any) {
	if nameQuery == "" || len(nameQuery) < 2 {
		return "", nil
	}
	for _, m := range menu {
		if strings.ToLower(m.Name) == nameQuery {
			return m.ID, nil
		}
	}
	var candidates []store.MenuItem
	for _, m := range menu {
		if strings.Contains(strings.ToLower(m.Name), nameQuery) {
			candidates = append(candidates, m)
		}
	}
	switch len(candidates) {
	case 0:
		return "", nil
	case 1:
		return candidates[0].ID, nil
	default:
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.Name
		}
		return "", errorPayload(fmt.Sprintf("Multiple items match '%s': %s. Please specify which one.",
			nameQuery, strings.Join(names, ", ")))
	}
}

// touchCustomer records the order on the customer's profile, creating an
// implicit profile for first-time identifiers.
func (t *ProcessOrder) touchCustomer(ctx context.Context, userID, timestamp string) error {
	c, found, err := t.Store.GetCustomer(ctx, userID)
	if err != nil {
		return fmt.Errorf("tools: loading profile %s: %w", userID, err)
	}
	if !found {
		c = store.Customer{
			ID:            userID,
			Name:          "New Customer",
			Email:         "",
			Preferences:   []string{},
			LastOrderDate: timestamp,
			IsFirstTime:   true,
		}
	} else {
		c.LastOrderDate = timestamp
		c.IsFirstTime = false
	}
	if err := t.Store.SetCustomer(ctx, c); err != nil {
		return fmt.Errorf("tools: saving profile %s: %w", userID, err)
	}
	return nil
}

// UpdateDeliveryStatus reports the current status of a submitted order.
type UpdateDeliveryStatus struct {
	Store store.Store
}

func (t *UpdateDeliveryStatus) Name() string { return NameUpdateDeliveryStatus }

func (t *UpdateDeliveryStatus) Def() llm.ToolDef {
	return llm.ToolDef{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        NameUpdateDeliveryStatus,
			Description: "Checks the current delivery status of a submitted order.",
			Parameters: llm.ToolParameters{
				Type: "object",
				Properties: map[string]llm.ToolParamDef{
					"order_id": {Type: "string", Description: "The order identifier, e.g. O-202501."},
				},
				Required: []string{"order_id"},
			},
		},
	}
}

func (t *UpdateDeliveryStatus) Invoke(ctx context.Context, args map[string]any) (any, error) {
	orderID := argString(args, "order_id")
	o, found, err := t.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("tools: loading order %s: %w", orderID, err)
	}
	if !found {
		return errorPayload(fmt.Sprintf("Order ID '%s' not found. Please check your ID.", orderID)), nil
	}
	payment := o.PaymentStatus
	if payment == "" {
		payment = "Unknown"
	}
	return map[string]any{
		"order_id":       orderID,
		"status":         o.Status,
		"payment_status": payment,
		"timestamp":      o.Timestamp,
	}, nil
}

// NotifyPaymentMade flags the customer's newest Pending Payment order as
// claimed paid so the vendor can verify the transfer.
type NotifyPaymentMade struct {
	Store store.Store
}

func (t *NotifyPaymentMade) Name() string { return NameNotifyPaymentMade }

func (t *NotifyPaymentMade) Def() llm.ToolDef {
	return llm.ToolDef{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        NameNotifyPaymentMade,
			Description: "Notifies the vendor that the customer claims to have made a payment. Use this when the customer says \"I have paid\" or \"Payment sent\".",
			Parameters: llm.ToolParameters{
				Type: "object",
				Properties: map[string]llm.ToolParamDef{
					"user_id": {Type: "string", Description: "The customer's phone-number identifier."},
				},
				Required: []string{"user_id"},
			},
		},
	}
}

func (t *NotifyPaymentMade) Invoke(ctx context.Context, args map[string]any) (any, error) {
	userID := argString(args, "user_id")
	orders, err := t.Store.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("tools: listing orders: %w", err)
	}

	// Newest first by timestamp; order IDs are not ordered across restarts.
	var newest *store.Order
	for i := range orders {
		o := orders[i]
		if o.CustomerID != userID || o.Status != store.StatusPendingPayment {
			continue
		}
		if newest == nil || o.Timestamp > newest.Timestamp {
			newest = &orders[i]
		}
	}
	if newest == nil {
		return map[string]any{"message": "No pending payment order found to notify."}, nil
	}

	newest.PaymentStatus = store.PaymentClaimed
	if err := t.Store.SetOrder(ctx, *newest); err != nil {
		return nil, fmt.Errorf("tools: saving order %s: %w", newest.ID, err)
	}
	if err := t.Store.Persist(ctx); err != nil {
		return nil, fmt.Errorf("tools: persisting order %s: %w", newest.ID, err)
	}
	return map[string]any{"message": "Vendor notified of payment. Please wait for confirmation."}, nil
}
