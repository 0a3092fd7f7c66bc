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
	"sort"
	"strings"

	"github.com/AleutianAI/cupcakery-crm/services/crm/store"
	"github.com/AleutianAI/cupcakery-crm/services/crm/tools"
	"github.com/AleutianAI/cupcakery-crm/services/llm"
)

// bankDetailsPlaceholder is the token the order tool leaves in its
// instruction text; only the synthesizer knows the live account details.
const bankDetailsPlaceholder = "{bank_details}"

// Synthesizer converts tagged tool results (or their absence) into the one
// user-facing reply string.
//
// Description:
//
//	Recognized result tags are rendered by fixed priority: order result,
//	then profile/loyalty, menu, delivery times, feedback, and finally LLM
//	free-text synthesis over everything else. Order confirmations come
//	exclusively from the tool's instruction field; the LLM path can never
//	author one, and the execution-lock interceptor repairs the case where
//	it tries to by emitting order JSON as text.
//
// Thread Safety: Safe for concurrent use.
type Synthesizer struct {
	Store    store.Store
	LLM      llm.Client
	Registry *tools.Registry
	Logger   *slog.Logger
}

// Synthesize fills state.FinalResponse from state.Results.
func (s *Synthesizer) Synthesize(ctx context.Context, state *PipelineState) error {
	settings, err := s.Store.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("crm: loading site settings: %w", err)
	}
	bankDetails := settings.BankDetails()

	// Defense in depth: a greeting that slipped past the router's guard
	// (e.g. via history replays) still gets the canned reply.
	if len(state.Results) == 0 && greetingPattern.MatchString(state.Query) {
		state.FinalResponse = greetingReply(state.Profile)
		return nil
	}

	byTool := map[string]any{}
	for _, res := range state.Results {
		byTool[res.Tool] = res.Payload
	}

	// An empty payload (e.g. an unknown customer's profile lookup) does not
	// claim its priority slot; the LLM path explains it instead.
	var final string
	switch {
	case nonEmptyPayload(byTool[tools.NameProcessOrder]):
		final = s.renderOrder(byTool[tools.NameProcessOrder], bankDetails)
	case nonEmptyPayload(byTool[tools.NameGetCustomerProfile]):
		final = s.renderLoyalty(byTool[tools.NameGetCustomerProfile], state.Query, settings)
	case nonEmptyPayload(byTool[tools.NameGetMenuAndPrice]):
		final = s.renderMenu(ctx, byTool[tools.NameGetMenuAndPrice], state.UserID)
	case nonEmptyPayload(byTool[tools.NameGetDeliveryTimes]):
		final = s.renderDeliveryTimes(byTool[tools.NameGetDeliveryTimes])
	case nonEmptyPayload(byTool[tools.NameLogFeedbackAndComplaint]):
		final = "Thanks for your feedback! It has been logged."
	default:
		final, err = s.renderViaLLM(ctx, state, bankDetails)
		if err != nil {
			return err
		}
	}

	state.FinalResponse = s.intercept(ctx, final, state.UserID, bankDetails)
	return nil
}

// renderOrder surfaces order errors verbatim and confirmations only through
// the tool's instruction text.
func (s *Synthesizer) renderOrder(payload any, bankDetails string) string {
	m, ok := payload.(map[string]any)
	if !ok {
		return "I'm sorry, something went wrong placing your order. Please try again."
	}
	if errMsg, ok := m["error"].(string); ok && errMsg != "" {
		return errMsg
	}
	if instr, ok := m["instruction"].(string); ok && instr != "" {
		return strings.ReplaceAll(instr, bankDetailsPlaceholder, bankDetails)
	}
	return fmt.Sprintf("Order Placed. ID: %s. Total: %s.",
		stringOr(m["order_id"], "Unknown"), stringOr(m["total_price"], "Unknown"))
}

// renderLoyalty reports the point balance, comparing it to the offer
// threshold when the query asks about qualifying.
func (s *Synthesizer) renderLoyalty(payload any, query string, settings store.SiteSettings) string {
	m, ok := payload.(map[string]any)
	if !ok {
		return "You have 0 loyalty points."
	}
	points := intFromAny(m["loyalty_points"])

	threshold := settings.OfferPointsThreshold
	if threshold == 0 {
		threshold = 300
	}

	lower := strings.ToLower(query)
	if strings.Contains(lower, "offer") || strings.Contains(lower, "need") {
		if points >= threshold {
			return fmt.Sprintf("You have %d points and qualify for the offer.", points)
		}
		return fmt.Sprintf("You have %d points. You need %d more for the offer.", points, threshold-points)
	}
	return fmt.Sprintf("You have %d loyalty points.", points)
}

// renderMenu lists available items as "name - price" lines, invites a
// selection, and recommends the customer's historically most-ordered item.
func (s *Synthesizer) renderMenu(ctx context.Context, payload any, userID string) string {
	items, ok := payload.([]map[string]any)
	if !ok {
		return "No products found."
	}

	var lines []string
	for _, item := range items {
		name, _ := item["name"].(string)
		price, _ := item["price"].(string)
		if name != "" && price != "" {
			lines = append(lines, name+" - "+price)
		}
	}
	if len(lines) == 0 {
		return "No products found."
	}

	final := strings.Join(lines, "\n") + "\n\nHere's the current menu — which would you like to order?"
	if top := s.mostOrderedItem(ctx, userID); top != "" {
		final += fmt.Sprintf("\nRecommended: %s — would you like to repeat it?", top)
	}
	return final
}

// mostOrderedItem tallies line-item quantities across the customer's past
// orders and returns the most frequent item name, or "" with no history.
func (s *Synthesizer) mostOrderedItem(ctx context.Context, userID string) string {
	orders, err := s.Store.ListOrders(ctx)
	if err != nil {
		s.Logger.Warn("recommendation tally failed", slog.Any("error", err))
		return ""
	}
	counts := map[string]int{}
	for _, o := range orders {
		if o.CustomerID != userID {
			continue
		}
		for _, line := range o.Items {
			if line.Name != "" {
				counts[line.Name] += line.Quantity
			}
		}
	}
	if len(counts) == 0 {
		return ""
	}
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	// Count descending, name ascending for a stable pick.
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names[0]
}

func (s *Synthesizer) renderDeliveryTimes(payload any) string {
	m, ok := payload.(map[string]any)
	if !ok {
		return "No delivery windows available right now."
	}
	windows, _ := m["windows"].([]any)
	var b strings.Builder
	b.WriteString("Available delivery windows:")
	for _, w := range windows {
		if ws, ok := w.(string); ok {
			b.WriteString("\n- " + ws)
		}
	}
	if note, ok := m["note"].(string); ok && note != "" {
		b.WriteString("\n" + note)
	}
	return b.String()
}

// renderViaLLM composes a free-text reply over the full context. The only
// path that consults the model during synthesis.
func (s *Synthesizer) renderViaLLM(ctx context.Context, state *PipelineState, bankDetails string) (string, error) {
	profileJSON, _ := json.Marshal(state.Profile)

	tagged := make([]map[string]any, 0, len(state.Results))
	for _, res := range state.Results {
		tagged = append(tagged, map[string]any{res.Tool: res.Payload})
	}
	toolOutputJSON, _ := json.Marshal(tagged)

	messages := []llm.Message{
		{Role: "system", Content: renderGeneratorPrompt(
			string(profileJSON), formatHistory(state.History),
			string(toolOutputJSON), bankDetails, state.Query)},
		{Role: "user", Content: state.Query},
	}
	content, err := s.LLM.Chat(ctx, messages, llm.GenerationParams{})
	if err != nil {
		return "", fmt.Errorf("crm: response generation: %w", err)
	}
	return content, nil
}

// intercept is the execution-lock safety net: if the final text still
// embeds an order call as JSON, the real tool runs with the trusted
// identity and its own text unconditionally replaces the reply. A doubly
// failed model (ignored function calling, slipped past the router's
// recovery) cannot put a fabricated confirmation in front of the customer.
func (s *Synthesizer) intercept(ctx context.Context, final, userID, bankDetails string) string {
	if !strings.Contains(final, `{"ProcessOrder":`) {
		return final
	}
	args, ok := extractEmbeddedOrder(final)
	if !ok {
		s.Logger.Warn("leaked order JSON detected but not parseable, leaving response")
		return final
	}

	interceptorTriggered.Inc()
	s.Logger.Warn("execution lock triggered, running order tool directly",
		slog.String("user_id", userID))

	// Same precondition gate the executor applies: an unidentified visitor
	// never gets an order created, on this path either.
	if userID == "" || userID == store.SentinelCustomerID {
		s.Logger.Warn("blocked intercepted order for unidentified customer")
		return newUserOrderError
	}

	tool, exists := s.Registry.Get(tools.NameProcessOrder)
	if !exists {
		return final
	}
	args["user_id"] = userID
	payload, err := tool.Invoke(ctx, args)
	if err != nil {
		s.Logger.Error("interceptor order execution failed", slog.Any("error", err))
		return "I'm sorry, I couldn't place that order. Please try again."
	}
	return s.renderOrder(payload, bankDetails)
}

func nonEmptyPayload(payload any) bool {
	switch p := payload.(type) {
	case nil:
		return false
	case map[string]any:
		return len(p) > 0
	case []map[string]any:
		return len(p) > 0
	case []any:
		return len(p) > 0
	default:
		return true
	}
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

func intFromAny(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	}
	return 0
}
