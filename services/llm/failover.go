// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// Client is the invocation interface consumed by the intent router and the
// response synthesizer.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Client interface {
	// Chat sends messages and returns the assistant's response text.
	Chat(ctx context.Context, messages []Message, params GenerationParams) (string, error)

	// ChatWithTools sends messages with tool definitions bound and returns
	// the structured result (text and/or tool calls).
	ChatWithTools(ctx context.Context, messages []Message, params GenerationParams,
		tools []ToolDef) (*ChatWithToolsResult, error)
}

// invoker is the per-provider client surface the failover loop drives.
// Satisfied by *OpenAICompatClient; tests substitute fakes.
type invoker interface {
	Provider() ProviderConfig
	ChatWithTools(ctx context.Context, messages []Message, params GenerationParams,
		tools []ToolDef) (*ChatWithToolsResult, error)
}

// FailoverClient walks an ordered provider list until one invocation
// succeeds.
//
// Description:
//
//	Providers without a credential are filtered out at construction.
//	Each remaining provider gets exactly one attempt per invocation — no
//	per-provider retry, no backoff; the next provider in priority order is
//	the retry. Every invocation is independent and stateless; nothing is
//	cached between calls. The client fails only when every provider has
//	been exhausted, surfacing the last error encountered.
//
// Thread Safety: FailoverClient is safe for concurrent use after construction.
type FailoverClient struct {
	clients []invoker
	logger  *slog.Logger
}

// NewFailoverClient builds a FailoverClient from an ordered provider list.
//
// Description:
//
//	Filters the list to providers carrying a credential and builds one
//	OpenAICompatClient per survivor, preserving priority order. A list in
//	which no provider has a credential is accepted here — construction is
//	config loading, not validation — and reported on first invocation.
//
// Inputs:
//   - providers: Ordered provider configurations. Priority is list order.
//   - logger: Logger for attempt/failure diagnostics. May be nil.
//
// Outputs:
//   - *FailoverClient: The configured client. Never nil.
func NewFailoverClient(providers []ProviderConfig, logger *slog.Logger) *FailoverClient {
	if logger == nil {
		logger = slog.Default()
	}
	clients := make([]invoker, 0, len(providers))
	for _, p := range providers {
		if p.APIKey == "" {
			continue
		}
		clients = append(clients, NewOpenAICompatClient(p))
	}
	logger.Info("LLM failover client configured",
		slog.Int("providers_total", len(providers)),
		slog.Int("providers_available", len(clients)),
	)
	return &FailoverClient{clients: clients, logger: logger}
}

// Chat implements Client.Chat via the failover loop.
func (f *FailoverClient) Chat(ctx context.Context, messages []Message, params GenerationParams) (string, error) {
	result, err := f.ChatWithTools(ctx, messages, params, nil)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

// ChatWithTools implements Client.ChatWithTools via the failover loop.
//
// Description:
//
//	Iterates the configured providers in priority order. Any error — a
//	timeout, an auth rejection, a malformed response — advances to the next
//	provider. The first success wins. When every provider fails, the last
//	error is returned wrapped, so the caller sees the terminal failure mode
//	rather than the first (a first-provider auth error is less informative
//	than a last-resort provider's timeout).
//
// Outputs:
//   - *ChatWithToolsResult: The first successful result.
//   - error: Non-nil when no provider has a credential or all attempts fail.
//
// Thread Safety: This method is safe for concurrent use.
func (f *FailoverClient) ChatWithTools(ctx context.Context, messages []Message,
	params GenerationParams, tools []ToolDef) (*ChatWithToolsResult, error) {

	if len(f.clients) == 0 {
		return nil, fmt.Errorf("llm: no providers configured (missing API keys)")
	}

	var lastErr error
	for _, client := range f.clients {
		provider := client.Provider()
		f.logger.Debug("attempting LLM provider",
			slog.String("provider", provider.Name),
			slog.String("model", provider.Model),
		)

		result, err := client.ChatWithTools(ctx, messages, params, tools)
		if err != nil {
			f.logger.Warn("LLM provider failed, advancing",
				slog.String("provider", provider.Name),
				slog.String("error", SafeLogString(err.Error())),
			)
			lastErr = err
			continue
		}

		f.logger.Debug("LLM provider succeeded", slog.String("provider", provider.Name))
		return result, nil
	}

	return nil, fmt.Errorf("llm: all providers failed: %w", lastErr)
}
