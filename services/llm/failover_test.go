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
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeInvoker stands in for one provider in the failover chain.
type fakeInvoker struct {
	name   string
	result *ChatWithToolsResult
	err    error
	calls  int
}

func (f *fakeInvoker) Provider() ProviderConfig {
	return ProviderConfig{Name: f.name, Model: "fake-model"}
}

func (f *fakeInvoker) ChatWithTools(_ context.Context, _ []Message, _ GenerationParams, _ []ToolDef) (*ChatWithToolsResult, error) {
	f.calls++
	return f.result, f.err
}

func TestFailoverFirstSuccessWins(t *testing.T) {
	first := &fakeInvoker{name: "A", result: &ChatWithToolsResult{Content: "from A"}}
	second := &fakeInvoker{name: "B", result: &ChatWithToolsResult{Content: "from B"}}
	client := &FailoverClient{clients: []invoker{first, second}, logger: testLogger()}

	result, err := client.ChatWithTools(context.Background(), nil, GenerationParams{}, nil)
	if err != nil {
		t.Fatalf("ChatWithTools() error: %v", err)
	}
	if result.Content != "from A" {
		t.Errorf("content = %q, want the first provider's answer", result.Content)
	}
	if second.calls != 0 {
		t.Errorf("second provider was attempted %d times after a success", second.calls)
	}
}

func TestFailoverAdvancesPastFailures(t *testing.T) {
	first := &fakeInvoker{name: "A", err: errors.New("rate limited")}
	second := &fakeInvoker{name: "B", err: errors.New("auth rejected")}
	third := &fakeInvoker{name: "C", result: &ChatWithToolsResult{Content: "from C"}}
	client := &FailoverClient{clients: []invoker{first, second, third}, logger: testLogger()}

	result, err := client.ChatWithTools(context.Background(), nil, GenerationParams{}, nil)
	if err != nil {
		t.Fatalf("ChatWithTools() error: %v", err)
	}
	if result.Content != "from C" {
		t.Errorf("content = %q", result.Content)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("failed providers attempted %d/%d times, want one each", first.calls, second.calls)
	}
}

func TestFailoverExhaustionReturnsLastError(t *testing.T) {
	first := &fakeInvoker{name: "A", err: errors.New("first failure")}
	last := &fakeInvoker{name: "B", err: errors.New("terminal timeout")}
	client := &FailoverClient{clients: []invoker{first, last}, logger: testLogger()}

	_, err := client.ChatWithTools(context.Background(), nil, GenerationParams{}, nil)
	if err == nil {
		t.Fatal("expected an error after exhausting every provider")
	}
	if !strings.Contains(err.Error(), "terminal timeout") {
		t.Errorf("error = %v, want the last provider's failure surfaced", err)
	}
}

func TestFailoverNoProvidersConfigured(t *testing.T) {
	client := NewFailoverClient([]ProviderConfig{
		{Name: "A", APIKey: ""},
		{Name: "B", APIKey: ""},
	}, testLogger())

	_, err := client.ChatWithTools(context.Background(), nil, GenerationParams{}, nil)
	if err == nil || !strings.Contains(err.Error(), "no providers configured") {
		t.Errorf("error = %v, want the missing-credentials failure", err)
	}
}

func TestNewFailoverClientFiltersMissingCredentials(t *testing.T) {
	client := NewFailoverClient([]ProviderConfig{
		{Name: "A", APIKey: ""},
		{Name: "B", APIKey: "key-b", BaseURL: "http://example.invalid", Model: "m"},
		{Name: "C", APIKey: ""},
	}, testLogger())

	if len(client.clients) != 1 {
		t.Fatalf("got %d configured providers, want 1", len(client.clients))
	}
	if client.clients[0].Provider().Name != "B" {
		t.Errorf("surviving provider = %s, want B", client.clients[0].Provider().Name)
	}
}

func TestFailoverChatUnwrapsContent(t *testing.T) {
	first := &fakeInvoker{name: "A", result: &ChatWithToolsResult{Content: "hello"}}
	client := &FailoverClient{clients: []invoker{first}, logger: testLogger()}

	content, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, GenerationParams{})
	if err != nil {
		t.Fatalf("Chat() error: %v", err)
	}
	if content != "hello" {
		t.Errorf("content = %q", content)
	}
}
