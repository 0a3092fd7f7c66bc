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
	"strings"

	"github.com/AleutianAI/cupcakery-crm/services/crm/store"
	"github.com/AleutianAI/cupcakery-crm/services/llm"
)

// GetMenuAndPrice searches the menu by name or ingredient.
//
// Description:
//
//	An empty query (or "all"/"menu") returns every available item.
//	Unavailable items never appear. An empty result set becomes a single
//	message entry rather than an empty list, so the LLM has text to relay.
type GetMenuAndPrice struct {
	Store store.Store
}

func (t *GetMenuAndPrice) Name() string { return NameGetMenuAndPrice }

func (t *GetMenuAndPrice) Def() llm.ToolDef {
	return llm.ToolDef{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        NameGetMenuAndPrice,
			Description: "Searches the Ellas Cupcakery menu. If 'query' is provided, returns items matching the name or ingredients. If 'query' is empty (or \"all\"), returns the entire menu.",
			Parameters: llm.ToolParameters{
				Type: "object",
				Properties: map[string]llm.ToolParamDef{
					"query": {Type: "string", Description: "Item name or ingredient to search for. Empty for the full menu."},
				},
			},
		},
	}
}

func (t *GetMenuAndPrice) Invoke(ctx context.Context, args map[string]any) (any, error) {
	query := strings.ToLower(strings.TrimSpace(argString(args, "query")))
	returnAll := query == "" || query == "all" || query == "menu"

	menu, err := t.Store.ListMenu(ctx)
	if err != nil {
		return nil, fmt.Errorf("tools: listing menu: %w", err)
	}

	var results []map[string]any
	for _, item := range menu {
		if !item.IsAvailable {
			continue
		}
		match := returnAll || strings.Contains(strings.ToLower(item.Name), query)
		if !match {
			for _, ing := range item.Ingredients {
				if strings.Contains(strings.ToLower(ing), query) {
					match = true
					break
				}
			}
		}
		if match {
			results = append(results, map[string]any{
				"item_id":      item.ID,
				"name":         item.Name,
				"price":        store.FormatNaira(item.Price),
				"is_available": item.IsAvailable,
				"ingredients":  item.Ingredients,
			})
		}
	}

	if len(results) == 0 {
		return []map[string]any{
			{"message": fmt.Sprintf("No products found matching '%s'.", query)},
		}, nil
	}
	return results, nil
}

// SuggestPersonalizedMeal picks an available item matching the customer's
// recorded preferences, with a best-seller fallback when nothing matches.
type SuggestPersonalizedMeal struct {
	Store store.Store
}

func (t *SuggestPersonalizedMeal) Name() string { return NameSuggestPersonalizedMeal }

func (t *SuggestPersonalizedMeal) Def() llm.ToolDef {
	return llm.ToolDef{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        NameSuggestPersonalizedMeal,
			Description: "Suggests a highly personalized and available pastry based on customer preferences and order history.",
			Parameters: llm.ToolParameters{
				Type: "object",
				Properties: map[string]llm.ToolParamDef{
					"customer_preferences": {
						Type:        "array",
						Description: "The customer's recorded taste preferences.",
						Items:       &llm.ToolParamDef{Type: "string"},
					},
					"last_order_date": {Type: "string", Description: "ISO timestamp of the customer's last order."},
				},
			},
		},
	}
}

func (t *SuggestPersonalizedMeal) Invoke(ctx context.Context, args map[string]any) (any, error) {
	prefs := argStringSlice(args, "customer_preferences")

	// Only preferences that map onto menu ingredients drive the suggestion.
	var target string
	for _, p := range prefs {
		if p == "Chocolate" || p == "Vegan" || p == "No Nuts" {
			target = p
			break
		}
	}

	if target != "" {
		menu, err := t.Store.ListMenu(ctx)
		if err != nil {
			return nil, fmt.Errorf("tools: listing menu: %w", err)
		}
		for _, item := range menu {
			if !item.IsAvailable {
				continue
			}
			for _, ing := range item.Ingredients {
				if strings.Contains(ing, target) {
					return map[string]any{
						"suggestion_name": item.Name,
						"reasoning": fmt.Sprintf("Based on your love for %s pastries, we recommend our %s (%s).",
							target, item.Name, store.FormatNaira(item.Price)),
					}, nil
				}
			}
		}
	}

	return map[string]any{
		"suggestion_name": "General Recommendation",
		"reasoning":       "We recommend checking out our current best-seller: Red Velvet Cupcake.",
	}, nil
}
