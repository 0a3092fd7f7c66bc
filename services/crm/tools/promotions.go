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
	"slices"

	"github.com/AleutianAI/cupcakery-crm/services/crm/store"
	"github.com/AleutianAI/cupcakery-crm/services/llm"
)

// SearchPromotions returns active promotions, optionally narrowed to those
// whose target tags intersect the customer's preferences.
type SearchPromotions struct {
	Store store.Store
}

func (t *SearchPromotions) Name() string { return NameSearchPromotions }

func (t *SearchPromotions) Def() llm.ToolDef {
	return llm.ToolDef{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        NameSearchPromotions,
			Description: "Searches for and returns active promotions, optionally filtering them based on customer preferences for targeted deals.",
			Parameters: llm.ToolParameters{
				Type: "object",
				Properties: map[string]llm.ToolParamDef{
					"customer_preferences": {
						Type:        "array",
						Description: "The customer's recorded preference tags.",
						Items:       &llm.ToolParamDef{Type: "string"},
					},
				},
			},
		},
	}
}

func (t *SearchPromotions) Invoke(ctx context.Context, args map[string]any) (any, error) {
	prefs := argStringSlice(args, "customer_preferences")

	promos, err := t.Store.ListPromotions(ctx)
	if err != nil {
		return nil, fmt.Errorf("tools: listing promotions: %w", err)
	}

	var active []store.Promotion
	for _, p := range promos {
		if p.Active {
			active = append(active, p)
		}
	}

	payload := func(ps []store.Promotion) []map[string]any {
		out := make([]map[string]any, len(ps))
		for i, p := range ps {
			out[i] = toMap(p)
		}
		return out
	}

	if len(prefs) == 0 {
		return payload(active), nil
	}

	var targeted []store.Promotion
	for _, p := range active {
		for _, tag := range p.TargetTags {
			if slices.Contains(prefs, tag) {
				targeted = append(targeted, p)
				break
			}
		}
	}
	if len(targeted) == 0 {
		return []map[string]any{
			{"message": "No targeted promotions currently available."},
		}, nil
	}
	return payload(targeted), nil
}
