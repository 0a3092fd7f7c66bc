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
	"testing"
)

func firstItem(t *testing.T, args map[string]any) map[string]any {
	t.Helper()
	items, ok := args["items"].([]any)
	if !ok || len(items) == 0 {
		t.Fatalf("items = %v, want a non-empty list", args["items"])
	}
	line, ok := items[0].(map[string]any)
	if !ok {
		t.Fatalf("items[0] = %T, want a map", items[0])
	}
	return line
}

func TestExtractEmbeddedCall(t *testing.T) {
	text := `Let me help. {"GetMenuAndPrice": {"query": "chocolate"}} There you go.`
	name, args, ok := extractEmbeddedCall(text)
	if !ok {
		t.Fatal("no embedded call found")
	}
	if name != "GetMenuAndPrice" {
		t.Errorf("name = %s", name)
	}
	if args["query"] != "chocolate" {
		t.Errorf("args = %v", args)
	}
}

func TestExtractEmbeddedCallNoMatch(t *testing.T) {
	for _, text := range []string{
		"plain text, nothing embedded",
		`broken {"ProcessOrder": {"items": } nope`,
		"",
	} {
		if _, _, ok := extractEmbeddedCall(text); ok {
			t.Errorf("extractEmbeddedCall(%q) matched, want no match", text)
		}
	}
}

func TestRepairOrderArgsItemShape(t *testing.T) {
	args := repairOrderArgs(map[string]any{"item": "Red Velvet", "quantity": float64(2)})
	line := firstItem(t, args)
	if line["name"] != "Red Velvet" || line["quantity"] != float64(2) {
		t.Errorf("repaired line = %v", line)
	}
}

func TestRepairOrderArgsNameShape(t *testing.T) {
	args := repairOrderArgs(map[string]any{"name": "Fresh Baked Buns"})
	line := firstItem(t, args)
	if line["name"] != "Fresh Baked Buns" {
		t.Errorf("repaired line = %v", line)
	}
	if line["quantity"] != float64(1) {
		t.Errorf("quantity = %v, want default 1", line["quantity"])
	}
}

func TestRepairOrderArgsFlatShape(t *testing.T) {
	args := repairOrderArgs(map[string]any{"product": "Small Chops Platter"})
	line := firstItem(t, args)
	if line["product"] != "Small Chops Platter" {
		t.Errorf("flat object not wrapped: %v", line)
	}
}

func TestRepairOrderArgsItemsPassThrough(t *testing.T) {
	orig := []any{map[string]any{"item_id": "P001", "quantity": float64(3)}}
	args := repairOrderArgs(map[string]any{"items": orig})
	items, ok := args["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("items = %v", args["items"])
	}
	if items[0].(map[string]any)["item_id"] != "P001" {
		t.Errorf("well-formed items were modified: %v", items[0])
	}
}
