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

	"github.com/AleutianAI/cupcakery-crm/services/llm"
)

// DeliveryWindows are the fixed same-day delivery slots.
var DeliveryWindows = []string{
	"10:00–12:00",
	"12:00–14:00",
	"14:00–16:00",
	"16:00–18:00",
}

// DeliveryNote accompanies the windows in every response.
const DeliveryNote = "Same-day delivery for orders confirmed before 12:00."

// GetDeliveryTimes returns the day's delivery windows. Static data, no
// collaborators.
type GetDeliveryTimes struct{}

func (t *GetDeliveryTimes) Name() string { return NameGetDeliveryTimes }

func (t *GetDeliveryTimes) Def() llm.ToolDef {
	return llm.ToolDef{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        NameGetDeliveryTimes,
			Description: "Returns available delivery windows for the day.",
			Parameters: llm.ToolParameters{
				Type: "object",
			},
		},
	}
}

func (t *GetDeliveryTimes) Invoke(_ context.Context, _ map[string]any) (any, error) {
	windows := make([]any, len(DeliveryWindows))
	for i, w := range DeliveryWindows {
		windows[i] = w
	}
	return map[string]any{
		"windows": windows,
		"note":    DeliveryNote,
	}, nil
}
