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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestProviderServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *OpenAICompatClient) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewOpenAICompatClient(ProviderConfig{
		Name:    "TestProvider",
		BaseURL: server.URL,
		APIKey:  "test-key",
		Model:   "test-model",
	})
	return server, client
}

func TestChatWithToolsParsesTextResponse(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	_, client := newTestProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "resp-1",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "Hello there!"},
				"finish_reason": "stop",
			}},
		})
	})

	result, err := client.ChatWithTools(context.Background(),
		[]Message{{Role: "system", Content: "be brief"}, {Role: "user", Content: "hi"}},
		GenerationParams{}, nil)
	if err != nil {
		t.Fatalf("ChatWithTools() error: %v", err)
	}
	if result.Content != "Hello there!" {
		t.Errorf("content = %q", result.Content)
	}
	if result.StopReason != "end" {
		t.Errorf("stop reason = %q, want end", result.StopReason)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != "test-model" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("wire messages = %+v", gotReq.Messages)
	}
}

func TestChatWithToolsParsesToolCalls(t *testing.T) {
	_, client := newTestProviderServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"role": "assistant",
					"tool_calls": []map[string]any{{
						"id":   "call-1",
						"type": "function",
						"function": map[string]any{
							"name":      "GetMenuAndPrice",
							"arguments": `{"query": "chocolate"}`,
						},
					}},
				},
				"finish_reason": "tool_calls",
			}},
		})
	})

	result, err := client.ChatWithTools(context.Background(),
		[]Message{{Role: "user", Content: "any chocolate?"}}, GenerationParams{}, nil)
	if err != nil {
		t.Fatalf("ChatWithTools() error: %v", err)
	}
	if result.StopReason != "tool_use" {
		t.Errorf("stop reason = %q, want tool_use", result.StopReason)
	}
	if len(result.ToolCalls) != 1 || result.ToolCalls[0].Name != "GetMenuAndPrice" {
		t.Fatalf("tool calls = %+v", result.ToolCalls)
	}
	args := result.ToolCalls[0].ArgumentsMap()
	if args["query"] != "chocolate" {
		t.Errorf("arguments = %v", args)
	}
}

func TestChatWithToolsUnknownRoleMappedToUser(t *testing.T) {
	var gotReq chatRequest
	_, client := newTestProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": "ok"},
				"finish_reason": "stop",
			}},
		})
	})

	_, err := client.ChatWithTools(context.Background(),
		[]Message{{Role: "tool", Content: "payload"}}, GenerationParams{}, nil)
	if err != nil {
		t.Fatalf("ChatWithTools() error: %v", err)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" {
		t.Errorf("wire messages = %+v, want the unknown role coerced to user", gotReq.Messages)
	}
}

func TestChatWithToolsNon200RedactsSecrets(t *testing.T) {
	_, client := newTestProviderServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "bad key gsk_abcdefghijklmnopqrstuvwxyz123456"}`))
	})

	_, err := client.ChatWithTools(context.Background(),
		[]Message{{Role: "user", Content: "hi"}}, GenerationParams{}, nil)
	if err == nil {
		t.Fatal("expected an error on 401")
	}
	if strings.Contains(err.Error(), "gsk_") {
		t.Errorf("secret leaked into the error: %v", err)
	}
	if !strings.Contains(err.Error(), "[REDACTED:groq_key]") {
		t.Errorf("error = %v, want redaction label", err)
	}
}

func TestChatWithToolsAPIErrorObject(t *testing.T) {
	_, client := newTestProviderServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "invalid_request_error", "message": "model not found"},
		})
	})

	_, err := client.ChatWithTools(context.Background(),
		[]Message{{Role: "user", Content: "hi"}}, GenerationParams{}, nil)
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Errorf("error = %v, want the API error surfaced", err)
	}
}

func TestChatWithToolsNoChoices(t *testing.T) {
	_, client := newTestProviderServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	_, err := client.ChatWithTools(context.Background(),
		[]Message{{Role: "user", Content: "hi"}}, GenerationParams{}, nil)
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Errorf("error = %v", err)
	}
}

func TestChatWithToolsModelOverride(t *testing.T) {
	var gotReq chatRequest
	_, client := newTestProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": "ok"},
				"finish_reason": "stop",
			}},
		})
	})

	_, err := client.ChatWithTools(context.Background(),
		[]Message{{Role: "user", Content: "hi"}},
		GenerationParams{ModelOverride: "special-model"}, nil)
	if err != nil {
		t.Fatalf("ChatWithTools() error: %v", err)
	}
	if gotReq.Model != "special-model" {
		t.Errorf("model = %q, want the override", gotReq.Model)
	}
}
