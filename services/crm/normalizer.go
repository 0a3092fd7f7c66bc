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
	"encoding/json"
	"regexp"

	"github.com/AleutianAI/cupcakery-crm/services/crm/tools"
)

// Models that ignore the function-calling API sometimes write the call as
// literal JSON in their text instead. The router and the synthesizer's
// interceptor both recover from that failure mode through the functions
// here, so the repair heuristics cannot drift apart between the two sites.

// embeddedCallPattern matches a single {"ToolName": {args}} object inside
// free text. Non-greedy so trailing prose after the object is not swallowed.
var embeddedCallPattern = regexp.MustCompile(`(?s)\{"([a-zA-Z0-9_]+)":\s*(\{.*?\})\}`)

// embeddedOrderPattern is the interceptor's stricter variant: it only fires
// on the order tool, the one call that must never leak as text.
var embeddedOrderPattern = regexp.MustCompile(`(?s)\{"ProcessOrder":\s*(\{.*?\})\s*\}`)

// extractEmbeddedCall finds a tool call written as literal JSON in text.
//
// Outputs:
//   - string: The tool name.
//   - map[string]any: The decoded, order-repaired arguments.
//   - bool: False when no parseable embedded call exists.
func extractEmbeddedCall(text string) (string, map[string]any, bool) {
	m := embeddedCallPattern.FindStringSubmatch(text)
	if m == nil {
		return "", nil, false
	}
	name := m[1]
	args := map[string]any{}
	if err := json.Unmarshal([]byte(m[2]), &args); err != nil {
		return "", nil, false
	}
	if name == tools.NameProcessOrder {
		args = repairOrderArgs(args)
	}
	return name, args, true
}

// extractEmbeddedOrder finds a leaked ProcessOrder call in a final response.
func extractEmbeddedOrder(text string) (map[string]any, bool) {
	m := embeddedOrderPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	args := map[string]any{}
	if err := json.Unmarshal([]byte(m[1]), &args); err != nil {
		return nil, false
	}
	return repairOrderArgs(args), true
}

// repairOrderArgs normalizes the argument shapes models actually emit for
// the order tool into the declared items-list schema:
//
//	{"item": "Red Velvet", "quantity": 1}  -> items: [{name, quantity}]
//	{"name": "Red Velvet", "quantity": 1}  -> items: [{name, quantity}]
//	{"anything": "else"}                   -> items: [<the flat object>]
//
// Arguments that already carry "items" pass through untouched.
func repairOrderArgs(args map[string]any) map[string]any {
	if args == nil {
		return map[string]any{}
	}
	if _, ok := args["items"]; ok {
		return args
	}
	quantity := any(float64(1))
	if q, ok := args["quantity"]; ok {
		quantity = q
	}
	if item, ok := args["item"]; ok {
		args["items"] = []any{map[string]any{"name": item, "quantity": quantity}}
		return args
	}
	if name, ok := args["name"]; ok {
		args["items"] = []any{map[string]any{"name": name, "quantity": quantity}}
		return args
	}
	args["items"] = []any{copyMap(args)}
	return args
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
