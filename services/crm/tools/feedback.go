// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/cupcakery-crm/services/crm/store"
	"github.com/AleutianAI/cupcakery-crm/services/llm"
)

// LogFeedbackAndComplaint appends an entry to the feedback log. Negative and
// crisis sentiment raise a warning log so the vendor sees it immediately.
type LogFeedbackAndComplaint struct {
	Store  store.Store
	Logger *slog.Logger
}

func (t *LogFeedbackAndComplaint) Name() string { return NameLogFeedbackAndComplaint }

func (t *LogFeedbackAndComplaint) Def() llm.ToolDef {
	return llm.ToolDef{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        NameLogFeedbackAndComplaint,
			Description: "Logs customer feedback or a complaint.",
			Parameters: llm.ToolParameters{
				Type: "object",
				Properties: map[string]llm.ToolParamDef{
					"user_id":   {Type: "string", Description: "The customer's phone-number identifier."},
					"message":   {Type: "string", Description: "The feedback text."},
					"sentiment": {Type: "string", Description: "Sentiment classification.", Enum: []any{"Positive", "Neutral", "Negative", "Crisis"}, Default: "Neutral"},
				},
				Required: []string{"user_id", "message"},
			},
		},
	}
}

func (t *LogFeedbackAndComplaint) Invoke(ctx context.Context, args map[string]any) (any, error) {
	userID := argString(args, "user_id")
	message := argString(args, "message")
	sentiment := argString(args, "sentiment")
	if sentiment == "" {
		sentiment = "Neutral"
	}

	entry := store.FeedbackEntry{
		LogID:     "L-" + uuid.NewString()[:4],
		Timestamp: time.Now().Format(time.RFC3339),
		UserID:    userID,
		Message:   message,
		Sentiment: sentiment,
	}
	if err := t.Store.AppendFeedback(ctx, entry); err != nil {
		return nil, fmt.Errorf("tools: appending feedback: %w", err)
	}
	if err := t.Store.Persist(ctx); err != nil {
		return nil, fmt.Errorf("tools: persisting feedback: %w", err)
	}

	switch strings.ToLower(sentiment) {
	case "crisis", "negative":
		t.Logger.Warn("negative feedback received",
			slog.String("log_id", entry.LogID),
			slog.String("user_id", userID),
			slog.String("sentiment", sentiment))
	}

	return map[string]any{"confirmation": "Feedback logged successfully."}, nil
}
