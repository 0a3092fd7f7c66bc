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

	"github.com/AleutianAI/cupcakery-crm/services/crm/store"
	"github.com/AleutianAI/cupcakery-crm/services/llm"
)

// GetCustomerProfile retrieves a customer's full profile record.
//
// Description:
//
//	An unknown customer produces an empty payload rather than an error; the
//	caller (LLM or synthesizer) decides what an empty profile means.
type GetCustomerProfile struct {
	Store store.Store
}

func (t *GetCustomerProfile) Name() string { return NameGetCustomerProfile }

func (t *GetCustomerProfile) Def() llm.ToolDef {
	return llm.ToolDef{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        NameGetCustomerProfile,
			Description: "Retrieves the customer's full profile including name, email, preferences, and loyalty points.",
			Parameters: llm.ToolParameters{
				Type: "object",
				Properties: map[string]llm.ToolParamDef{
					"user_id": {Type: "string", Description: "The customer's phone-number identifier."},
				},
				Required: []string{"user_id"},
			},
		},
	}
}

func (t *GetCustomerProfile) Invoke(ctx context.Context, args map[string]any) (any, error) {
	userID := argString(args, "user_id")
	c, found, err := t.Store.GetCustomer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("tools: loading profile %s: %w", userID, err)
	}
	if !found {
		return map[string]any{}, nil
	}
	return toMap(c), nil
}

// UpdateCustomerProfile creates or updates a customer record with contact
// details supplied in chat. Blank fields leave existing values untouched.
type UpdateCustomerProfile struct {
	Store store.Store
}

func (t *UpdateCustomerProfile) Name() string { return NameUpdateCustomerProfile }

func (t *UpdateCustomerProfile) Def() llm.ToolDef {
	return llm.ToolDef{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        NameUpdateCustomerProfile,
			Description: "Updates the customer's profile with new information (name or email) provided in the chat. Use this tool IMMEDIATELY when a user provides their contact details.",
			Parameters: llm.ToolParameters{
				Type: "object",
				Properties: map[string]llm.ToolParamDef{
					"user_id": {Type: "string", Description: "The customer's phone-number identifier."},
					"name":    {Type: "string", Description: "The customer's name, if provided."},
					"email":   {Type: "string", Description: "The customer's email address, if provided."},
				},
				Required: []string{"user_id"},
			},
		},
	}
}

func (t *UpdateCustomerProfile) Invoke(ctx context.Context, args map[string]any) (any, error) {
	userID := argString(args, "user_id")
	name := argString(args, "name")
	email := argString(args, "email")

	c, found, err := t.Store.GetCustomer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("tools: loading profile %s: %w", userID, err)
	}
	if !found {
		c = store.Customer{
			ID:          userID,
			Name:        name,
			Email:       email,
			Preferences: []string{},
			IsFirstTime: true,
		}
	} else {
		if name != "" {
			c.Name = name
		}
		if email != "" {
			c.Email = email
		}
	}

	if err := t.Store.SetCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("tools: saving profile %s: %w", userID, err)
	}
	if err := t.Store.Persist(ctx); err != nil {
		return nil, fmt.Errorf("tools: persisting profile %s: %w", userID, err)
	}

	return map[string]any{
		"message": "Profile updated successfully.",
		"current_profile": map[string]any{
			"name":  c.Name,
			"email": c.Email,
		},
	}, nil
}
