// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SeedData holds the initial shop records written into an empty store.
type SeedData struct {
	Customers []Customer
	Menu      []MenuItem
	Orders    []Order
	Promos    []Promotion
	Settings  SiteSettings
}

// DefaultSeed returns the initial shop data: the standing menu, the reserved
// new-customer template, a returning demo customer with an in-flight order,
// and the default site settings.
func DefaultSeed() SeedData {
	now := time.Now()
	return SeedData{
		Customers: []Customer{
			{
				ID:            RestrictedTestCustomerID,
				Name:          "Bola Alade",
				Email:         "bola@example.com",
				Preferences:   []string{"Chocolate", "No Nuts", "Coffee Lover"},
				LoyaltyPoints: 820,
				LastOrderDate: now.Add(-15 * 24 * time.Hour).Format(time.RFC3339),
				IsFirstTime:   false,
			},
			{
				ID:          SentinelCustomerID,
				Name:        "New Customer",
				Email:       "",
				Preferences: []string{},
				IsFirstTime: true,
			},
		},
		Menu: []MenuItem{
			{
				ID:            "P001",
				Name:          "Red Velvet Cupcake",
				Price:         decimal.NewFromInt(850),
				Ingredients:   []string{"Cream Cheese", "Cocoa", "Vanilla"},
				IsAvailable:   true,
				ImageURL:      "/images/red_velvet_cupcake.png",
				LoyaltyPoints: 8,
			},
			{
				ID:            "P002",
				Name:          "Classic Chocolate Cake (6-inch)",
				Price:         decimal.NewFromInt(5500),
				Ingredients:   []string{"Dark Chocolate", "Flour", "Butter", "Nuts"},
				IsAvailable:   true,
				ImageURL:      "/images/chocolate_cake.png",
				LoyaltyPoints: 55,
			},
			{
				ID:            "P003",
				Name:          "Vegan Lemon Loaf",
				Price:         decimal.NewFromInt(3200),
				Ingredients:   []string{"Lemon", "Flour", "Vegan"},
				IsAvailable:   false,
				ImageURL:      "/images/lemon_loaf.png",
				LoyaltyPoints: 32,
			},
			{
				ID:            "P004",
				Name:          "Small Chops Platter",
				Price:         decimal.NewFromInt(2500),
				Ingredients:   []string{"Samosa", "Spring Roll", "Puff Puff", "Chicken"},
				IsAvailable:   true,
				ImageURL:      "/images/small_chops.png",
				LoyaltyPoints: 25,
			},
			{
				ID:            "P005",
				Name:          "Fresh Baked Buns",
				Price:         decimal.NewFromInt(500),
				Ingredients:   []string{"Flour", "Sugar", "Butter"},
				IsAvailable:   true,
				ImageURL:      "/images/buns-fresh.png",
				LoyaltyPoints: 5,
			},
		},
		Orders: []Order{
			{
				ID:         "O-202501",
				CustomerID: RestrictedTestCustomerID,
				Items: []OrderItem{
					{
						ItemID:       "P002",
						Name:         "Classic Chocolate Cake (6-inch)",
						Quantity:     1,
						PriceAtOrder: decimal.NewFromInt(5500),
					},
				},
				Status:        StatusOutForDelivery,
				PaymentStatus: PaymentPaid,
				Timestamp:     now.Add(-2 * time.Hour).Format(time.RFC3339),
				Total:         decimal.NewFromInt(5500),
			},
		},
		Promos: []Promotion{
			{
				ID:          "S001",
				Name:        "Loyalty 10% Off",
				Description: "10% off any order over ₦5000 for loyalty members.",
				TargetTags:  []string{"High Loyalty"},
				Active:      true,
			},
			{
				ID:          "S002",
				Name:        "New Customer Free Coffee",
				Description: "Get a free Cold Brew with your first order.",
				TargetTags:  []string{"New Customer"},
				Active:      true,
			},
		},
		Settings: SiteSettings{
			PaymentBankName:      "Access Bank",
			PaymentAccountNumber: "1522553410",
			PaymentAccountName:   "Ellas Cupcakery",
			OfferPointsThreshold: 2000,
			ContactEmail:         "hello@ellascupcakery.com",
			ContactInstagram:     "@ellas_cupcakery",
			ContactWhatsApp:      "+2348012345678",
		},
	}
}

// ApplySeed writes the seed records into the store. Used when a store opens
// with an empty customers collection.
func ApplySeed(ctx context.Context, s Store, seed SeedData) error {
	for _, c := range seed.Customers {
		if err := s.SetCustomer(ctx, c); err != nil {
			return fmt.Errorf("store: seeding customer %s: %w", c.ID, err)
		}
	}
	for _, m := range seed.Menu {
		if err := s.SetMenuItem(ctx, m); err != nil {
			return fmt.Errorf("store: seeding menu item %s: %w", m.ID, err)
		}
	}
	for _, o := range seed.Orders {
		if err := s.SetOrder(ctx, o); err != nil {
			return fmt.Errorf("store: seeding order %s: %w", o.ID, err)
		}
	}
	for _, p := range seed.Promos {
		if err := s.SetPromotion(ctx, p); err != nil {
			return fmt.Errorf("store: seeding promotion %s: %w", p.ID, err)
		}
	}
	if err := s.SetSettings(ctx, seed.Settings); err != nil {
		return fmt.Errorf("store: seeding site settings: %w", err)
	}
	return s.Persist(ctx)
}
