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
	"strings"
	"testing"
)

func TestSafeLogStringRedactsKnownSecrets(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "groq key",
			input: "auth failed for gsk_abcdefghijklmnopqrstuvwxyz123456",
			want:  "auth failed for [REDACTED:groq_key]",
		},
		{
			name:  "hugging face token",
			input: "token hf_ABCDEFGHIJKLMNOPQRSTUVWXYZ123456 rejected",
			want:  "token [REDACTED:hf_token] rejected",
		},
		{
			name:  "github token",
			input: "using ghp_ABCDEFGHIJKLMNOPQRST1234",
			want:  "using [REDACTED:github_token]",
		},
		{
			name:  "openai style key",
			input: "sk-ABCDEFGHIJKLMNOPQRSTUVWX failed",
			want:  "[REDACTED:api_key] failed",
		},
		{
			name:  "bearer header echo",
			input: "header was Bearer abc.def-ghi_jkl123",
			want:  "header was [REDACTED:bearer_token]",
		},
		{
			name:  "url query key",
			input: "GET /v1/chat?key=abcdef123456789",
			want:  "GET /v1/chat?key=[REDACTED]",
		},
		{
			name:  "connection string password",
			input: "dsn user=x password=hunter22 host=y",
			want:  "dsn user=x password=[REDACTED] host=y",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SafeLogString(tc.input); got != tc.want {
				t.Errorf("SafeLogString(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSafeLogStringLeavesCleanTextAlone(t *testing.T) {
	for _, s := range []string{"", "plain error: connection refused", "order O-17 total 1700"} {
		if got := SafeLogString(s); got != s {
			t.Errorf("SafeLogString(%q) = %q, want unchanged", s, got)
		}
	}
}

func TestSafeLogStringRedactsMultipleOccurrences(t *testing.T) {
	input := "a gsk_abcdefghijklmnopqrstuvwxyz1 then sk-ABCDEFGHIJKLMNOPQRSTUV"
	got := SafeLogString(input)
	if strings.Contains(got, "gsk_") || strings.Contains(got, "sk-A") {
		t.Errorf("secrets survived: %q", got)
	}
}
