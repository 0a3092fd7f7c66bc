// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import "context"

// Store is the record-store collaborator the pipeline, tools, and web layer
// are written against.
//
// Description:
//
//	One method group per collection, with get/set/delete/append semantics
//	and a full Persist operation called after every mutating tool so the
//	data is durable before the response leaves the pipeline. The store is
//	the sole arbiter of consistency: callers apply no locking of their own
//	and assume at least last-write-wins semantics per record.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Store interface {
	// Customers.
	GetCustomer(ctx context.Context, id string) (Customer, bool, error)
	SetCustomer(ctx context.Context, c Customer) error
	DeleteCustomer(ctx context.Context, id string) error
	ListCustomers(ctx context.Context) ([]Customer, error)

	// Menu.
	GetMenuItem(ctx context.Context, id string) (MenuItem, bool, error)
	SetMenuItem(ctx context.Context, m MenuItem) error
	DeleteMenuItem(ctx context.Context, id string) error
	ListMenu(ctx context.Context) ([]MenuItem, error)

	// Orders.
	GetOrder(ctx context.Context, id string) (Order, bool, error)
	SetOrder(ctx context.Context, o Order) error
	ListOrders(ctx context.Context) ([]Order, error)

	// Feedback is append-only.
	AppendFeedback(ctx context.Context, f FeedbackEntry) error
	ListFeedback(ctx context.Context) ([]FeedbackEntry, error)

	// Promotions.
	SetPromotion(ctx context.Context, p Promotion) error
	ListPromotions(ctx context.Context) ([]Promotion, error)

	// Site settings (single record).
	GetSettings(ctx context.Context) (SiteSettings, error)
	SetSettings(ctx context.Context, s SiteSettings) error

	// Persist flushes the full snapshot to durable storage.
	Persist(ctx context.Context) error
}
