// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tools implements the bakery's business tools and the registry the
// pipeline executes them through. Tools report business-rule outcomes
// (unknown item, restricted customer, ambiguous match) inside their payload
// under an "error" key so the synthesizer can render them verbatim; a Go
// error means an infrastructure fault (store unavailable) and aborts nothing
// but the single invocation.
package tools

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/AleutianAI/cupcakery-crm/services/llm"
)

// Tool names. The executor matches on these for identity injection, and the
// synthesizer for result priority.
const (
	NameGetCustomerProfile      = "GetCustomerProfile"
	NameUpdateCustomerProfile   = "UpdateCustomerProfile"
	NameGetMenuAndPrice         = "GetMenuAndPrice"
	NameProcessOrder            = "ProcessOrder"
	NameUpdateDeliveryStatus    = "UpdateDeliveryStatus"
	NameSearchPromotions        = "SearchPromotions"
	NameLogFeedbackAndComplaint = "LogFeedbackAndComplaint"
	NameSuggestPersonalizedMeal = "SuggestPersonalizedMeal"
	NameNotifyPaymentMade       = "NotifyPaymentMade"
	NameGetDeliveryTimes        = "GetDeliveryTimes"
)

// Tool is one executable business operation.
//
// Description:
//
//	Def returns the function-calling schema handed to the LLM. Invoke runs
//	the operation against loosely typed arguments as decoded from model
//	output; implementations must tolerate missing and mistyped fields.
//	The payload is JSON-shaped (map or slice of maps).
//
// Thread Safety: Implementations must be safe for concurrent use.
type Tool interface {
	Name() string
	Def() llm.ToolDef
	Invoke(ctx context.Context, args map[string]any) (any, error)
}

// errorPayload is the structured business-error result shape.
func errorPayload(msg string) map[string]any {
	return map[string]any{"error": msg}
}

// toMap renders a struct as its JSON object form. Used to hand records to
// the synthesizer and the LLM with their wire field names.
func toMap(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}
	return out
}

// argString reads a string argument, tolerating absence and non-string types.
func argString(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

// argInt coerces a numeric argument. Models emit quantities as JSON numbers
// (decoded float64), strings, or omit them entirely.
func argInt(v any, def int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return def
}

// argStringSlice reads a list-of-strings argument. A bare string is treated
// as a single-element list.
func argStringSlice(args map[string]any, key string) []string {
	v, ok := args[key]
	if !ok || v == nil {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case string:
		if vv == "" {
			return nil
		}
		return []string{vv}
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// argItemList reads the order "items" argument: a list of objects, where a
// single object or a list of bare strings (item names) is also accepted.
func argItemList(args map[string]any, key string) []map[string]any {
	v, ok := args[key]
	if !ok || v == nil {
		return nil
	}
	switch vv := v.(type) {
	case []map[string]any:
		return vv
	case map[string]any:
		return []map[string]any{vv}
	case string:
		return []map[string]any{{"name": vv}}
	case []any:
		out := make([]map[string]any, 0, len(vv))
		for _, e := range vv {
			switch ee := e.(type) {
			case map[string]any:
				out = append(out, ee)
			case string:
				out = append(out, map[string]any{"name": ee})
			}
		}
		return out
	}
	return nil
}
