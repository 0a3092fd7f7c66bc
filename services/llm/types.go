// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm implements the LLM invocation layer for the Cupcakery CRM
// agent: an OpenAI-compatible chat-completions client over raw net/http and
// a failover client that walks an ordered provider list until one succeeds.
//
// Thread Safety:
//
//	All clients in this package are safe for concurrent use after construction.
package llm

import "os"

// Message is a single conversation turn passed to a provider.
type Message struct {
	// Role is "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the text content of the turn.
	Content string `json:"content"`
}

// GenerationParams holds provider-agnostic generation options.
//
// Description:
//
//	Zero values mean "omit from the request and use the provider default".
//	The intent pipeline always pins Temperature to 0 for deterministic
//	routing decisions, so Temperature uses a pointer to distinguish an
//	explicit zero from "unset".
type GenerationParams struct {
	// Temperature controls randomness. Nil omits the field.
	Temperature *float32

	// MaxTokens limits the response length. Nil omits the field.
	MaxTokens *int

	// ModelOverride replaces the client's configured model for one request.
	ModelOverride string
}

// ProviderConfig describes one entry in the failover list.
//
// Description:
//
//	Every provider in the list speaks the OpenAI chat-completions dialect;
//	only the endpoint, credential, and model name differ. Providers without
//	a credential are skipped by the failover client.
type ProviderConfig struct {
	// Name is the human-readable provider name used in logs ("Groq").
	Name string

	// BaseURL is the chat-completions endpoint for this provider.
	BaseURL string

	// APIKey is the bearer credential. Empty means the provider is not
	// configured and must be skipped.
	APIKey string

	// Model is the provider-specific model identifier.
	Model string
}

// DefaultProviders returns the ordered provider fallback list read from the
// environment.
//
// Description:
//
//	The order is the failover priority order. Entries whose credential
//	variable is unset are still returned (with an empty APIKey) so callers
//	can log the full configured set; the failover client filters them out
//	before invocation.
//
// Outputs:
//   - []ProviderConfig: The ordered provider list. Never empty.
func DefaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{
			Name:    "Groq",
			BaseURL: "https://api.groq.com/openai/v1/chat/completions",
			APIKey:  os.Getenv("GROQ_API_KEY"),
			Model:   "llama-3.3-70b-versatile",
		},
		{
			Name:    "Cerebras",
			BaseURL: "https://api.cerebras.ai/v1/chat/completions",
			APIKey:  os.Getenv("CEREBRAS_API_KEY"),
			Model:   "llama-3.3-70b",
		},
		{
			Name:    "SambaNova",
			BaseURL: "https://api.sambanova.ai/v1/chat/completions",
			APIKey:  os.Getenv("SAMBANOVA_API_KEY"),
			Model:   "Meta-Llama-3.3-70B-Instruct",
		},
		{
			Name:    "Mistral AI",
			BaseURL: "https://api.mistral.ai/v1/chat/completions",
			APIKey:  os.Getenv("MISTRAL_API_KEY"),
			Model:   "open-mistral-nemo",
		},
		{
			Name:    "GitHub Models",
			BaseURL: "https://models.github.ai/inference/chat/completions",
			APIKey:  os.Getenv("GITHUB_TOKEN"),
			Model:   "Meta-Llama-3.1-8B-Instruct",
		},
		{
			Name:    "Cohere",
			BaseURL: "https://api.cohere.ai/compatibility/v1/chat/completions",
			APIKey:  os.Getenv("COHERE_API_KEY"),
			Model:   "command-r-plus-08-2024",
		},
		{
			Name:    "Hugging Face",
			BaseURL: "https://api-inference.huggingface.co/models/meta-llama/Meta-Llama-3-8B-Instruct/v1/chat/completions",
			APIKey:  os.Getenv("HF_API_KEY"),
			Model:   "meta-llama/Meta-Llama-3-8B-Instruct",
		},
	}
}
