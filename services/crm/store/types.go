// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store defines the bakery's record collections (customers, menu,
// orders, feedback, promotions, site settings) and the Store interface the
// pipeline and tools are written against. Two implementations exist: a
// BadgerDB-backed store for the server and an in-memory store for tests.
package store

import "github.com/shopspring/decimal"

// SentinelCustomerID is the reserved identifier for an unidentified visitor.
// It must never own a placed order; the tool executor blocks it.
const SentinelCustomerID = "NEW_USER"

// RestrictedTestCustomerID is always rejected by order placement regardless
// of item validity.
const RestrictedTestCustomerID = "9012345678"

// Order status progression. Orders are created in StatusPendingPayment and
// advanced only by the admin update endpoint.
const (
	StatusPendingPayment   = "Pending Payment"
	StatusProcessing       = "Processing"
	StatusReadyForDelivery = "Ready for Delivery"
	StatusOutForDelivery   = "Out for Delivery"
	StatusCompleted        = "Completed"
)

// Payment status progression.
const (
	PaymentUnpaid  = "Unpaid"
	PaymentClaimed = "Customer Claimed Paid"
	PaymentPaid    = "Paid"
)

// Customer is one customer profile record.
type Customer struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Preferences []string `json:"preferences"`

	// LoyaltyPoints is the current balance. Awarded only on payment
	// confirmation, never at order time.
	LoyaltyPoints int `json:"loyalty_points"`

	// LastOrderDate is an ISO-8601 timestamp; empty when the customer has
	// never ordered.
	LastOrderDate string `json:"last_order_date"`

	IsFirstTime bool `json:"is_first_time"`
}

// MenuItem is one sellable item. Read-only from the pipeline's perspective;
// the admin endpoints mutate it.
type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Ingredients []string        `json:"ingredients"`
	IsAvailable bool            `json:"is_available"`
	ImageURL    string          `json:"image_url,omitempty"`

	// LoyaltyPoints is the award value used when payment is confirmed.
	LoyaltyPoints int `json:"loyalty_points"`
}

// OrderItem is one order line. PriceAtOrder freezes the menu price at
// placement time; later menu price changes never alter it.
type OrderItem struct {
	ItemID       string          `json:"item_id"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	PriceAtOrder decimal.Decimal `json:"price_at_order"`
}

// Order is one placed order.
type Order struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customer_id"`
	Items         []OrderItem     `json:"items"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	Timestamp     string          `json:"timestamp"`
	Total         decimal.Decimal `json:"total"`

	// PointsAwarded guards loyalty-point crediting: it flips false→true at
	// most once, no matter how many payment-confirming updates arrive.
	PointsAwarded bool `json:"points_awarded"`
}

// FeedbackEntry is one append-only feedback record.
type FeedbackEntry struct {
	LogID     string `json:"log_id"`
	Timestamp string `json:"timestamp"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	Sentiment string `json:"sentiment"`
}

// Promotion is one marketing promotion, optionally targeted by customer
// preference tags.
type Promotion struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	TargetTags  []string `json:"target_tags"`
	Active      bool     `json:"active"`
}

// SiteSettings holds shop-wide configuration edited through the admin
// dashboard. The pipeline reads the payment fields (substituted into order
// confirmations) and the offer threshold (loyalty qualification).
type SiteSettings struct {
	HeroBgURL            string `json:"hero_bg_url,omitempty"`
	HeroImgURL           string `json:"hero_img_url,omitempty"`
	PaymentBankName      string `json:"payment_bank_name"`
	PaymentAccountNumber string `json:"payment_account_number"`
	PaymentAccountName   string `json:"payment_account_name"`
	OfferPointsThreshold int    `json:"offer_points_threshold"`
	ContactEmail         string `json:"contact_email"`
	ContactInstagram     string `json:"contact_instagram,omitempty"`
	ContactWhatsApp      string `json:"contact_whatsapp,omitempty"`
	ContactFacebook      string `json:"contact_facebook,omitempty"`
}

// BankDetails renders the payment fields as the single line substituted for
// the {bank_details} placeholder in order confirmations.
func (s SiteSettings) BankDetails() string {
	bank := s.PaymentBankName
	if bank == "" {
		bank = "Access Bank"
	}
	number := s.PaymentAccountNumber
	if number == "" {
		number = "1522553410"
	}
	account := s.PaymentAccountName
	if account == "" {
		account = "Ellas Cupcakery"
	}
	return bank + " - " + number + " (" + account + ")"
}
