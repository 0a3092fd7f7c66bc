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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// =============================================================================
// Chat Completions Wire Types
// =============================================================================

// providerTimeout bounds a single provider attempt. The failover client makes
// exactly one attempt per provider, so this is also the per-provider budget.
const providerTimeout = 30 * time.Second

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Tools       []ToolDef     `json:"tools,omitempty"`
}

type chatMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content,omitempty"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type wireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function wireCallFunction `json:"function"`
}

type wireCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// =============================================================================
// Client Implementation
// =============================================================================

// OpenAICompatClient talks to one OpenAI-compatible provider using raw
// net/http.
//
// Description:
//
//	Every provider in the fallback list (Groq, Cerebras, SambaNova, Mistral,
//	GitHub Models, Cohere, Hugging Face) exposes the OpenAI chat-completions
//	dialect, so a single client implementation covers all of them. Supports
//	text generation and function calling; no streaming.
//
// Thread Safety: OpenAICompatClient is safe for concurrent use.
type OpenAICompatClient struct {
	httpClient *http.Client
	provider   ProviderConfig
}

// NewOpenAICompatClient creates a client for a single provider.
//
// Inputs:
//   - provider: Endpoint, credential, and model for this provider.
//
// Outputs:
//   - *OpenAICompatClient: The configured client. Never nil.
func NewOpenAICompatClient(provider ProviderConfig) *OpenAICompatClient {
	return &OpenAICompatClient{
		httpClient: &http.Client{Timeout: providerTimeout},
		provider:   provider,
	}
}

// Provider returns the provider configuration this client was built with.
func (c *OpenAICompatClient) Provider() ProviderConfig {
	return c.provider
}

// Chat sends messages and returns the assistant's response text.
//
// Inputs:
//   - ctx: Context for cancellation and timeout.
//   - messages: Conversation messages (system, user, assistant).
//   - params: Generation parameters.
//
// Outputs:
//   - string: The assistant's response text.
//   - error: Non-nil on transport, auth, or API failure.
//
// Thread Safety: This method is safe for concurrent use.
func (c *OpenAICompatClient) Chat(ctx context.Context, messages []Message, params GenerationParams) (string, error) {
	result, err := c.ChatWithTools(ctx, messages, params, nil)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

// ChatWithTools sends a chat request with optional tool definitions.
//
// Description:
//
//	Converts messages to the chat-completions wire format, attaches tool
//	definitions when provided, and parses both text content and tool_calls
//	out of the response. A response carrying neither is still valid — the
//	router treats empty content with no tool calls as a conversational
//	no-op and falls back to a clarifying question.
//
// Inputs:
//   - ctx: Context for cancellation and timeout.
//   - messages: Conversation history.
//   - params: Generation parameters.
//   - tools: Tool definitions for function calling. May be nil.
//
// Outputs:
//   - *ChatWithToolsResult: Content and/or tool calls.
//   - error: Non-nil on failure.
//
// Thread Safety: This method is safe for concurrent use.
func (c *OpenAICompatClient) ChatWithTools(ctx context.Context, messages []Message,
	params GenerationParams, tools []ToolDef) (*ChatWithToolsResult, error) {

	model := c.provider.Model
	if params.ModelOverride != "" {
		model = params.ModelOverride
	}

	slog.Debug("Chat via provider",
		slog.String("provider", c.provider.Name),
		slog.String("model", model),
		slog.Int("messages", len(messages)),
		slog.Int("tools", len(tools)),
	)

	wireMessages := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		role := msg.Role
		switch role {
		case "system", "user", "assistant":
			// valid roles, keep as-is
		default:
			slog.Warn("unknown message role, mapping to user",
				slog.String("unknown_role", role),
				slog.String("provider", c.provider.Name),
			)
			role = "user"
		}
		wireMessages = append(wireMessages, chatMessage{Role: role, Content: msg.Content})
	}

	reqPayload := chatRequest{
		Model:    model,
		Messages: wireMessages,
		Tools:    tools,
	}
	if params.Temperature != nil {
		reqPayload.Temperature = params.Temperature
	}
	if params.MaxTokens != nil {
		reqPayload.MaxTokens = params.MaxTokens
	}

	reqBody, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("%s: marshaling request: %w", c.provider.Name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.provider.BaseURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("%s: creating HTTP request: %w", c.provider.Name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.provider.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: HTTP request failed: %w", c.provider.Name, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: reading response body: %w", c.provider.Name, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: API returned status %d: %s",
			c.provider.Name, resp.StatusCode, SafeLogString(string(bodyBytes)))
	}

	var apiResp chatResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("%s: parsing response JSON: %w", c.provider.Name, err)
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("%s: API error: %s - %s",
			c.provider.Name, apiResp.Error.Type, SafeLogString(apiResp.Error.Message))
	}

	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("%s: returned no choices", c.provider.Name)
	}

	choice := apiResp.Choices[0]
	result := &ChatWithToolsResult{
		Content: choice.Message.Content,
	}
	for _, tc := range choice.Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, ToolCallResponse{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}

	if len(result.ToolCalls) > 0 {
		result.StopReason = "tool_use"
	} else {
		result.StopReason = "end"
	}

	slog.Debug("Received chat response",
		slog.String("provider", c.provider.Name),
		slog.String("finish_reason", choice.FinishReason),
		slog.Int("response_len", len(result.Content)),
		slog.Int("tool_calls", len(result.ToolCalls)),
	)

	return result, nil
}
