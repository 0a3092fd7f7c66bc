// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package crm implements the conversational ordering pipeline: identity
// resolution, deterministic intent routing with LLM fallback, gated tool
// execution, and response synthesis with a final interception layer that
// keeps fabricated order confirmations from ever reaching the customer.
package crm

import (
	"strings"

	"github.com/AleutianAI/cupcakery-crm/services/crm/store"
)

// Intent classification outcomes.
const (
	IntentConversational = "CONVERSATIONAL"
	IntentToolRequired   = "TOOL_REQUIRED"
)

// Message is one turn of conversation history as supplied by the caller.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolInvocation is one pending tool call selected by the router.
type ToolInvocation struct {
	Tool string
	Args map[string]any
}

// ToolResult is one tagged tool outcome. Payload is the tool's JSON-shaped
// return value; business errors live inside it under "error".
type ToolResult struct {
	Tool    string
	Payload any
}

// PipelineState is the unit of work passed between the four stages. It lives
// for exactly one request and is never persisted.
//
// Thread Safety: Owned by a single request goroutine. Not safe for sharing.
type PipelineState struct {
	UserID  string
	Query   string
	History []Message

	// Profile is set by the identity resolver. For unknown identifiers it
	// is the new-customer template with the ID substituted, unsaved.
	Profile store.Customer

	Intent      string
	Invocations []ToolInvocation
	Results     []ToolResult

	// PromptInjection carries the router's clarification instruction into
	// the LLM fallback when order vocabulary matched but no item could be
	// extracted deterministically.
	PromptInjection string

	FinalResponse string
}

// historyLimit bounds the rendered history so provider prompts stay small.
const historyLimit = 2000

// formatHistory renders conversation history for prompt embedding, keeping
// only the trailing portion when it exceeds the limit.
func formatHistory(history []Message) string {
	if len(history) == 0 {
		return "No previous history."
	}
	lines := make([]string, 0, len(history))
	for _, m := range history {
		role := m.Role
		if role == "" {
			role = "unknown"
		}
		lines = append(lines, strings.ToUpper(role)+": "+m.Content)
	}
	s := strings.Join(lines, "\n")
	if len(s) > historyLimit {
		s = s[len(s)-historyLimit:]
	}
	return s
}
