// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package crm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/cupcakery-crm/services/crm/store"
)

// IdentityResolver maps an opaque customer identifier to a profile record.
//
// Description:
//
//	Unknown identifiers resolve to a copy of the reserved new-customer
//	template with the identifier substituted in. The copy is NOT persisted;
//	a real record appears only when the customer orders or shares contact
//	details. The only failure mode is an unavailable store, which is fatal
//	for the whole request.
//
// Thread Safety: Safe for concurrent use.
type IdentityResolver struct {
	Store  store.Store
	Logger *slog.Logger
}

// Resolve returns the profile for userID.
func (r *IdentityResolver) Resolve(ctx context.Context, userID string) (store.Customer, error) {
	c, found, err := r.Store.GetCustomer(ctx, userID)
	if err != nil {
		return store.Customer{}, fmt.Errorf("crm: resolving customer %s: %w", userID, err)
	}
	if !found {
		template, tmplFound, err := r.Store.GetCustomer(ctx, store.SentinelCustomerID)
		if err != nil {
			return store.Customer{}, fmt.Errorf("crm: loading new-customer template: %w", err)
		}
		if !tmplFound {
			template = store.Customer{Name: "New Customer", Preferences: []string{}, IsFirstTime: true}
		}
		template.ID = userID
		c = template
	}
	r.Logger.Debug("identified user",
		slog.String("user_id", userID),
		slog.String("name", c.Name),
		slog.Bool("known", found))
	return c, nil
}
