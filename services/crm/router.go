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
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/AleutianAI/cupcakery-crm/services/crm/store"
	"github.com/AleutianAI/cupcakery-crm/services/crm/tools"
	"github.com/AleutianAI/cupcakery-crm/services/llm"
)

// =============================================================================
// Guard Vocabulary
// =============================================================================

// greetingPattern matches a bare salutation opener. Combined with a length
// cap so "hi, what's in the chocolate cake?" still reaches the other guards.
var greetingPattern = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|good\s+(morning|afternoon|evening))\b`)

// greetingMaxLen is the length cap for the greeting short-circuit.
const greetingMaxLen = 20

// feedbackMarker is the UI's explicit feedback prefix. Exclusive: a marked
// message never triggers any other tool.
const feedbackMarker = "[FEEDBACK]"

var (
	menuKeywords       = []string{"menu", "price", "list", "available", "cost"}
	orderVerbs         = []string{"order", "buy", "want", "get"}
	loyaltyKeywords    = []string{"loyalty", "points", "balance"}
	itemKeywords       = []string{"velvet", "chocolate", "strawberry", "vanilla", "bun", "cupcake", "cake"}
	distinctiveTokens  = []string{"velvet", "chocolate", "lemon", "bun", "cupcake", "cake", "platter", "chops"}
	standaloneQuantity = regexp.MustCompile(`\b(\d+)\b`)
)

// =============================================================================
// Router
// =============================================================================

// Router is the core decision engine: deterministic guards evaluated in a
// fixed order, falling back to an LLM tool-call decision only when no guard
// fires.
//
// Description:
//
//	The guard ordering is load-bearing. Menu vocabulary overlaps order
//	vocabulary ("cake" is both an item keyword and part of menu chatter),
//	and the "AND NOT" suppression clauses only hold under this exact
//	evaluation sequence: greeting, feedback marker, menu, order, loyalty.
//	Changing it changes which tool runs for observable inputs.
//
// Thread Safety: Safe for concurrent use.
type Router struct {
	Store    store.Store
	LLM      llm.Client
	Registry *tools.Registry
	Logger   *slog.Logger
}

// Route classifies the query, filling either state.FinalResponse (with
// IntentConversational) or state.Invocations (with IntentToolRequired).
func (r *Router) Route(ctx context.Context, state *PipelineState) error {
	query := state.Query
	lower := strings.ToLower(query)

	if greetingPattern.MatchString(query) && len(query) < greetingMaxLen {
		routerGuardsFired.WithLabelValues("greeting").Inc()
		state.Intent = IntentConversational
		state.FinalResponse = greetingReply(state.Profile)
		return nil
	}

	if strings.HasPrefix(query, feedbackMarker) {
		routerGuardsFired.WithLabelValues("feedback").Inc()
		r.Logger.Debug("feedback marker detected, routing exclusively to feedback log")
		state.Intent = IntentToolRequired
		state.Invocations = []ToolInvocation{{
			Tool: tools.NameLogFeedbackAndComplaint,
			Args: map[string]any{
				"message":   strings.TrimSpace(strings.TrimPrefix(query, feedbackMarker)),
				"sentiment": "Neutral",
			},
		}}
		return nil
	}

	var forced []ToolInvocation

	if containsAny(lower, menuKeywords) &&
		!strings.Contains(lower, "status") && !strings.Contains(lower, "order") && !strings.Contains(lower, "buy") {
		routerGuardsFired.WithLabelValues("menu").Inc()
		forced = append(forced, ToolInvocation{
			Tool: tools.NameGetMenuAndPrice,
			Args: map[string]any{"query": "all"},
		})
	}

	if (containsAny(lower, orderVerbs) || containsAny(lower, itemKeywords)) &&
		!strings.Contains(lower, "status") {
		if items, err := r.extractOrderItems(ctx, lower); err != nil {
			return err
		} else if len(items) > 0 {
			routerGuardsFired.WithLabelValues("order").Inc()
			r.Logger.Debug("order guard extracted items", slog.Any("items", items))
			forced = append(forced, ToolInvocation{
				Tool: tools.NameProcessOrder,
				Args: map[string]any{"items": items},
			})
		} else {
			// Order vocabulary with no extractable item: let the LLM do
			// the extraction, but pin it to the order task.
			state.PromptInjection = fmt.Sprintf(
				"[SYSTEM INJECTION]: Please place an order for the exact menu item mentioned: '%s'.", query)
		}
	}

	if containsAny(lower, loyaltyKeywords) {
		routerGuardsFired.WithLabelValues("loyalty").Inc()
		forced = append(forced, ToolInvocation{
			Tool: tools.NameGetCustomerProfile,
			Args: map[string]any{},
		})
	}

	if len(forced) > 0 {
		state.Intent = IntentToolRequired
		state.Invocations = forced
		return nil
	}

	return r.routeViaLLM(ctx, state)
}

// extractOrderItems scans the menu for an item whose distinctive name tokens
// appear in the query. First match wins; the quantity is the first
// standalone number in the text, defaulting to 1.
func (r *Router) extractOrderItems(ctx context.Context, lower string) ([]any, error) {
	menu, err := r.Store.ListMenu(ctx)
	if err != nil {
		return nil, fmt.Errorf("crm: listing menu for order guard: %w", err)
	}

	quantity := 1
	if m := standaloneQuantity.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			quantity = n
		}
	}

	for _, item := range menu {
		nameLower := strings.ToLower(item.Name)
		if !containsAny(nameLower, distinctiveTokens) {
			continue
		}
		for _, tok := range strings.Fields(nameLower) {
			if strings.Contains(lower, tok) {
				return []any{map[string]any{"name": item.Name, "quantity": quantity}}, nil
			}
		}
	}
	return nil, nil
}

// routeViaLLM delegates the decision to the model with the full tool set
// bound, then recovers the known failure mode of tool calls written as
// literal JSON text.
func (r *Router) routeViaLLM(ctx context.Context, state *PipelineState) error {
	profileJSON, _ := json.Marshal(state.Profile)
	messages := []llm.Message{
		{Role: "system", Content: renderClassifierPrompt(string(profileJSON), formatHistory(state.History), state.Query)},
		{Role: "user", Content: state.Query},
	}
	if state.PromptInjection != "" {
		messages = append(messages, llm.Message{Role: "user", Content: state.PromptInjection})
	}

	result, err := r.LLM.ChatWithTools(ctx, messages, llm.GenerationParams{}, r.Registry.Defs())
	if err != nil {
		return fmt.Errorf("crm: intent classification: %w", err)
	}

	if len(result.ToolCalls) == 0 {
		if name, args, ok := extractEmbeddedCall(result.Content); ok {
			routerLLMFallbackTotal.WithLabelValues("recovered_json").Inc()
			r.Logger.Warn("tool call emitted as literal JSON, recovered",
				slog.String("tool", name))
			state.Intent = IntentToolRequired
			state.Invocations = []ToolInvocation{{Tool: name, Args: args}}
			return nil
		}
		routerLLMFallbackTotal.WithLabelValues("conversational").Inc()
		state.Intent = IntentConversational
		state.FinalResponse = result.Content
		return nil
	}

	routerLLMFallbackTotal.WithLabelValues("tool_call").Inc()
	state.Intent = IntentToolRequired
	for _, tc := range result.ToolCalls {
		state.Invocations = append(state.Invocations, ToolInvocation{
			Tool: tc.Name,
			Args: tc.ArgumentsMap(),
		})
	}
	r.Logger.Debug("model selected tools", slog.Int("count", len(state.Invocations)))
	return nil
}

// greetingReply is the canned short-circuit for bare salutations, shared
// with the synthesizer's defense-in-depth check.
func greetingReply(profile store.Customer) string {
	name := profile.Name
	if name == "" || name == "New Customer" {
		name = "Guest"
	}
	return fmt.Sprintf("Hi %s, what would you like to order today?", name)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
