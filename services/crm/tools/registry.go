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
	"log/slog"

	"github.com/AleutianAI/cupcakery-crm/services/crm/notify"
	"github.com/AleutianAI/cupcakery-crm/services/crm/store"
	"github.com/AleutianAI/cupcakery-crm/services/llm"
)

// Registry holds the tool set in registration order.
//
// Thread Safety: Immutable after construction. Safe for concurrent use.
type Registry struct {
	byName map[string]Tool
	order  []Tool
}

// NewRegistry builds a registry from the given tools. Later registrations
// with a duplicate name replace earlier ones.
func NewRegistry(ts ...Tool) *Registry {
	r := &Registry{byName: make(map[string]Tool, len(ts))}
	for _, t := range ts {
		if _, exists := r.byName[t.Name()]; !exists {
			r.order = append(r.order, t)
		}
		r.byName[t.Name()] = t
	}
	return r
}

// DefaultRegistry wires the full bakery tool set against the given
// collaborators.
func DefaultRegistry(st store.Store, notifier notify.Notifier, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return NewRegistry(
		&GetCustomerProfile{Store: st},
		&UpdateCustomerProfile{Store: st},
		&GetMenuAndPrice{Store: st},
		&ProcessOrder{Store: st, Notifier: notifier, Logger: logger},
		&UpdateDeliveryStatus{Store: st},
		&SearchPromotions{Store: st},
		&LogFeedbackAndComplaint{Store: st, Logger: logger},
		&SuggestPersonalizedMeal{Store: st},
		&NotifyPaymentMade{Store: st},
		&GetDeliveryTimes{},
	)
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Defs returns the function-calling schemas in registration order, ready to
// bind to a ChatWithTools request.
func (r *Registry) Defs() []llm.ToolDef {
	defs := make([]llm.ToolDef, 0, len(r.order))
	for _, t := range r.order {
		defs = append(defs, t.Def())
	}
	return defs
}
