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
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and local experiments.
// Persist is a no-op. List methods return records sorted by ID so tests get
// deterministic ordering; feedback keeps append order.
//
// Thread Safety: Safe for concurrent use via an internal mutex.
type MemoryStore struct {
	mu        sync.RWMutex
	customers map[string]Customer
	menu      map[string]MenuItem
	orders    map[string]Order
	feedback  []FeedbackEntry
	promos    map[string]Promotion
	settings  SiteSettings
	hasConfig bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers: make(map[string]Customer),
		menu:      make(map[string]MenuItem),
		orders:    make(map[string]Order),
		promos:    make(map[string]Promotion),
	}
}

// NewSeededMemoryStore returns an in-memory store pre-populated with the
// default seed data. The test-side equivalent of OpenBadger on a fresh dir.
func NewSeededMemoryStore() *MemoryStore {
	s := NewMemoryStore()
	// ApplySeed on a MemoryStore cannot fail.
	_ = ApplySeed(context.Background(), s, DefaultSeed())
	return s
}

func (s *MemoryStore) GetCustomer(_ context.Context, id string) (Customer, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	return c, ok, nil
}

func (s *MemoryStore) SetCustomer(_ context.Context, c Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
	return nil
}

func (s *MemoryStore) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.customers, id)
	return nil
}

func (s *MemoryStore) ListCustomers(_ context.Context) ([]Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetMenuItem(_ context.Context, id string) (MenuItem, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.menu[id]
	return m, ok, nil
}

func (s *MemoryStore) SetMenuItem(_ context.Context, m MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu[m.ID] = m
	return nil
}

func (s *MemoryStore) DeleteMenuItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.menu, id)
	return nil
}

func (s *MemoryStore) ListMenu(_ context.Context) ([]MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MenuItem, 0, len(s.menu))
	for _, m := range s.menu {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetOrder(_ context.Context, id string) (Order, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	return o, ok, nil
}

func (s *MemoryStore) SetOrder(_ context.Context, o Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
	return nil
}

func (s *MemoryStore) ListOrders(_ context.Context) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) AppendFeedback(_ context.Context, f FeedbackEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = append(s.feedback, f)
	return nil
}

func (s *MemoryStore) ListFeedback(_ context.Context) ([]FeedbackEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]FeedbackEntry, len(s.feedback))
	copy(out, s.feedback)
	return out, nil
}

func (s *MemoryStore) SetPromotion(_ context.Context, p Promotion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promos[p.ID] = p
	return nil
}

func (s *MemoryStore) ListPromotions(_ context.Context) ([]Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Promotion, 0, len(s.promos))
	for _, p := range s.promos {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetSettings(_ context.Context) (SiteSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasConfig {
		return DefaultSeed().Settings, nil
	}
	return s.settings, nil
}

func (s *MemoryStore) SetSettings(_ context.Context, settings SiteSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.hasConfig = true
	return nil
}

func (s *MemoryStore) Persist(_ context.Context) error {
	return nil
}
