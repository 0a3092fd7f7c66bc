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
	"log/slog"
	"strings"
	"testing"

	"github.com/AleutianAI/cupcakery-crm/services/crm/notify"
	"github.com/AleutianAI/cupcakery-crm/services/crm/store"
	"github.com/AleutianAI/cupcakery-crm/services/crm/tools"
)

func newTestExecutor() (*Executor, *store.MemoryStore) {
	st := store.NewSeededMemoryStore()
	registry := tools.DefaultRegistry(st, &notify.LogNotifier{}, slog.Default())
	return &Executor{Registry: registry, Logger: slog.Default()}, st
}

func TestExecutorInjectsTrustedIdentity(t *testing.T) {
	exec, st := newTestExecutor()

	state := &PipelineState{
		UserID: "2348011112222",
		Query:  "log my feedback",
		Invocations: []ToolInvocation{{
			Tool: tools.NameLogFeedbackAndComplaint,
			// The model claims to be someone else; the executor must override.
			Args: map[string]any{"user_id": "9999", "message": "great buns"},
		}},
	}
	exec.Execute(context.Background(), state)

	entries, err := st.ListFeedback(context.Background())
	if err != nil {
		t.Fatalf("ListFeedback() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d feedback entries, want 1", len(entries))
	}
	if entries[0].UserID != "2348011112222" {
		t.Errorf("feedback user = %s, want the trusted identity", entries[0].UserID)
	}
}

func TestExecutorBlocksOrderForSentinelCustomer(t *testing.T) {
	exec, st := newTestExecutor()

	for _, userID := range []string{"", store.SentinelCustomerID} {
		state := &PipelineState{
			UserID: userID,
			Query:  "order a red velvet",
			Invocations: []ToolInvocation{{
				Tool: tools.NameProcessOrder,
				Args: map[string]any{"items": []any{map[string]any{"item_id": "P001"}}},
			}},
		}
		exec.Execute(context.Background(), state)

		if len(state.Results) != 1 {
			t.Fatalf("userID %q: got %d results, want 1", userID, len(state.Results))
		}
		payload := state.Results[0].Payload.(map[string]any)
		if payload["error"] != newUserOrderError {
			t.Errorf("userID %q: error = %v, want precondition message", userID, payload["error"])
		}
	}

	// The gate fires before the tool: no order record may exist.
	orders, err := st.ListOrders(context.Background())
	if err != nil {
		t.Fatalf("ListOrders() error: %v", err)
	}
	if len(orders) != 1 {
		t.Errorf("got %d orders, want only the seeded one", len(orders))
	}
}

func TestExecutorQuantityRescanOverwritesDefaults(t *testing.T) {
	exec, _ := newTestExecutor()

	cases := []struct {
		query string
		want  float64
	}{
		{"I would like three red velvets delivered", 3},
		{"give me 5 of those", 5},
	}
	for _, tc := range cases {
		args := map[string]any{
			"items": []any{map[string]any{"name": "Red Velvet Cupcake", "quantity": float64(1)}},
		}
		state := &PipelineState{
			UserID:      "2348011112222",
			Query:       tc.query,
			Invocations: []ToolInvocation{{Tool: tools.NameProcessOrder, Args: args}},
		}
		exec.Execute(context.Background(), state)

		line := args["items"].([]any)[0].(map[string]any)
		got, _ := line["quantity"].(int)
		if float64(got) != tc.want {
			t.Errorf("query %q: quantity = %v, want %v", tc.query, line["quantity"], tc.want)
		}
	}
}

func TestExecutorQuantityRescanKeepsExplicitQuantities(t *testing.T) {
	exec, _ := newTestExecutor()

	args := map[string]any{
		"items": []any{map[string]any{"name": "Red Velvet Cupcake", "quantity": float64(4)}},
	}
	state := &PipelineState{
		UserID:      "2348011112222",
		Query:       "two please", // conflicting text must not clobber an explicit 4
		Invocations: []ToolInvocation{{Tool: tools.NameProcessOrder, Args: args}},
	}
	exec.Execute(context.Background(), state)

	line := args["items"].([]any)[0].(map[string]any)
	if line["quantity"] != float64(4) {
		t.Errorf("quantity = %v, want explicit 4 preserved", line["quantity"])
	}
}

func TestExecutorUnknownToolYieldsTaggedError(t *testing.T) {
	exec, _ := newTestExecutor()

	state := &PipelineState{
		UserID: "u1",
		Invocations: []ToolInvocation{
			{Tool: "MakeCoffee", Args: map[string]any{}},
			{Tool: tools.NameGetDeliveryTimes, Args: map[string]any{}},
		},
	}
	exec.Execute(context.Background(), state)

	if len(state.Results) != 2 {
		t.Fatalf("got %d results, want 2 (batch must not short-circuit)", len(state.Results))
	}
	payload := state.Results[0].Payload.(map[string]any)
	if got, _ := payload["error"].(string); !strings.Contains(got, "Tool 'MakeCoffee' not found.") {
		t.Errorf("error = %q", got)
	}
	if state.Results[1].Tool != tools.NameGetDeliveryTimes {
		t.Errorf("second invocation did not run after the failure")
	}
}
