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
	"regexp"
	"strconv"
	"strings"

	"github.com/AleutianAI/cupcakery-crm/services/crm/store"
	"github.com/AleutianAI/cupcakery-crm/services/crm/tools"
)

// identityTools are the tools whose contract requires the acting customer's
// identity. The executor overwrites whatever identifier the model supplied;
// the model is never trusted to author identity.
var identityTools = map[string]bool{
	tools.NameProcessOrder:            true,
	tools.NameUpdateCustomerProfile:   true,
	tools.NameGetCustomerProfile:      true,
	tools.NameLogFeedbackAndComplaint: true,
	tools.NameNotifyPaymentMade:       true,
}

// newUserOrderError is the structured precondition error for orders from
// unidentified visitors.
const newUserOrderError = "Please provide your name and email before placing an order."

// spelledQuantities are the spelled-out numbers the quantity re-scan
// recognizes in raw text, checked in ascending order.
var spelledQuantities = []struct {
	word string
	n    int
}{
	{"one", 1}, {"two", 2}, {"three", 3}, {"four", 4}, {"five", 5},
	{"six", 6}, {"seven", 7}, {"eight", 8}, {"nine", 9}, {"ten", 10},
	{"eleven", 11}, {"twelve", 12},
}

var digitQuantity = regexp.MustCompile(`\b(\d+)\b`)

// Executor runs the router's selected invocations sequentially.
//
// Description:
//
//	The batch never short-circuits: a failing invocation records a tagged
//	error result and the next one still runs, so synthesis always has a
//	result per requested tool. Identity injection and the new-user order
//	gate run before any tool code.
//
// Thread Safety: Safe for concurrent use.
type Executor struct {
	Registry *tools.Registry
	Logger   *slog.Logger
}

// Execute runs state.Invocations and fills state.Results.
func (e *Executor) Execute(ctx context.Context, state *PipelineState) {
	for _, inv := range state.Invocations {
		args := inv.Args
		if args == nil {
			args = map[string]any{}
		}

		if identityTools[inv.Tool] {
			args["user_id"] = state.UserID
			if inv.Tool == tools.NameProcessOrder &&
				(state.UserID == "" || state.UserID == store.SentinelCustomerID) {
				e.Logger.Warn("blocked order for unidentified customer")
				executorToolRuns.WithLabelValues(inv.Tool, "blocked").Inc()
				state.Results = append(state.Results, ToolResult{
					Tool:    inv.Tool,
					Payload: map[string]any{"error": newUserOrderError},
				})
				continue
			}
		}

		if inv.Tool == tools.NameProcessOrder {
			rescanQuantities(args, state.Query)
		}

		tool, ok := e.Registry.Get(inv.Tool)
		if !ok {
			e.Logger.Warn("unknown tool requested", slog.String("tool", inv.Tool))
			executorToolRuns.WithLabelValues(inv.Tool, "unknown").Inc()
			state.Results = append(state.Results, ToolResult{
				Tool:    inv.Tool,
				Payload: map[string]any{"error": "Tool '" + inv.Tool + "' not found."},
			})
			continue
		}

		payload, err := tool.Invoke(ctx, args)
		if err != nil {
			e.Logger.Error("tool invocation failed",
				slog.String("tool", inv.Tool),
				slog.Any("error", err))
			executorToolRuns.WithLabelValues(inv.Tool, "fault").Inc()
			state.Results = append(state.Results, ToolResult{
				Tool:    inv.Tool,
				Payload: map[string]any{"error": "Tool failure: " + err.Error()},
			})
			continue
		}

		executorToolRuns.WithLabelValues(inv.Tool, "ok").Inc()
		e.Logger.Debug("executed tool", slog.String("tool", inv.Tool))
		state.Results = append(state.Results, ToolResult{Tool: inv.Tool, Payload: payload})
	}
}

// rescanQuantities re-reads the raw query for an explicit quantity and
// overwrites line quantities that were defaulted to 1. Models routinely
// drop "two" from "two red velvets" when building arguments; the raw text
// is the better source of truth for counts.
func rescanQuantities(args map[string]any, query string) {
	items, ok := args["items"].([]any)
	if !ok {
		return
	}
	text := strings.ToLower(query)

	qty := 0
	if m := digitQuantity.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			qty = n
		}
	}
	if qty == 0 {
		padded := " " + text + " "
		for _, sq := range spelledQuantities {
			if strings.Contains(padded, " "+sq.word+" ") {
				qty = sq.n
				break
			}
		}
	}
	if qty <= 1 {
		return
	}

	for _, it := range items {
		line, ok := it.(map[string]any)
		if !ok {
			continue
		}
		switch q := line["quantity"].(type) {
		case nil:
			line["quantity"] = qty
		case float64:
			if q == 1 {
				line["quantity"] = qty
			}
		case int:
			if q == 1 {
				line["quantity"] = qty
			}
		default:
			line["quantity"] = qty
		}
	}
}
