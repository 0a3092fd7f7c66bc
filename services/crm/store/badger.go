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

// BadgerDB (not a client-server database): shop records are service-local
// data measured in kilobytes. An embedded store means no network call, no
// availability dependency, and ~100µs access latency. Records are JSON
// encoded under {collection}/{id} keys; listing a collection is a prefix
// scan in key order, which also gives feedback its append order for free
// (keys embed a nanosecond timestamp).

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// Collection key prefixes. Versioned layout is not needed here: the records
// are plain JSON and additive schema changes decode cleanly.
const (
	prefixCustomers = "customers/"
	prefixMenu      = "menu/"
	prefixOrders    = "orders/"
	prefixFeedback  = "feedback/"
	prefixPromos    = "promos/"
	keySettings     = "settings/site"
)

// BadgerStore implements Store on an embedded BadgerDB instance.
//
// Description:
//
//	The DB is owned by the store: Open creates it and Close releases it.
//	An empty store (no customers) is seeded with DefaultSeed on open.
//	Persist maps to a BadgerDB sync, flushing the value log to disk.
//
// Thread Safety: Safe for concurrent use. BadgerDB transactions are
// per-goroutine.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenBadger opens (or creates) a BadgerDB-backed store at dir.
//
// Description:
//
//	Opens the DB with default options and badger's own logging silenced in
//	favor of slog. When the customers collection is empty (a fresh data
//	directory) the default seed data is applied so the shop is usable
//	immediately.
//
// Inputs:
//   - ctx: Context for the seeding writes.
//   - dir: Data directory. Created if absent.
//   - logger: Logger for open/seed diagnostics. May be nil.
//
// Outputs:
//   - *BadgerStore: The opened store. Callers own Close.
//   - error: Non-nil if the DB cannot be opened or seeded.
func OpenBadger(ctx context.Context, dir string, logger *slog.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: opening badger at %s: %w", dir, err)
	}

	s := &BadgerStore{db: db, logger: logger}

	customers, err := s.ListCustomers(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: checking for seed data: %w", err)
	}
	if len(customers) == 0 {
		logger.Info("empty store, applying default seed data", slog.String("dir", dir))
		if err := ApplySeed(ctx, s, DefaultSeed()); err != nil {
			db.Close()
			return nil, err
		}
	}

	return s, nil
}

// Close releases the underlying BadgerDB.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Generic record helpers
// =============================================================================

func badgerSet[T any](db *badger.DB, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encoding %s: %w", key, err)
	}
	err = db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("store: writing %s: %w", key, err)
	}
	return nil
}

func badgerGet[T any](db *badger.DB, key string) (T, bool, error) {
	var out T
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return out, false, nil
	}
	if err != nil {
		return out, false, fmt.Errorf("store: reading %s: %w", key, err)
	}
	return out, true, nil
}

func badgerDelete(db *badger.DB, key string) error {
	err := db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("store: deleting %s: %w", key, err)
	}
	return nil
}

func badgerList[T any](db *badger.DB, prefix string) ([]T, error) {
	var out []T
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec T
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				out = append(out, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: listing %s: %w", prefix, err)
	}
	return out, nil
}

// =============================================================================
// Store implementation
// =============================================================================

func (s *BadgerStore) GetCustomer(_ context.Context, id string) (Customer, bool, error) {
	return badgerGet[Customer](s.db, prefixCustomers+id)
}

func (s *BadgerStore) SetCustomer(_ context.Context, c Customer) error {
	return badgerSet(s.db, prefixCustomers+c.ID, c)
}

func (s *BadgerStore) DeleteCustomer(_ context.Context, id string) error {
	return badgerDelete(s.db, prefixCustomers+id)
}

func (s *BadgerStore) ListCustomers(_ context.Context) ([]Customer, error) {
	return badgerList[Customer](s.db, prefixCustomers)
}

func (s *BadgerStore) GetMenuItem(_ context.Context, id string) (MenuItem, bool, error) {
	return badgerGet[MenuItem](s.db, prefixMenu+id)
}

func (s *BadgerStore) SetMenuItem(_ context.Context, m MenuItem) error {
	return badgerSet(s.db, prefixMenu+m.ID, m)
}

func (s *BadgerStore) DeleteMenuItem(_ context.Context, id string) error {
	return badgerDelete(s.db, prefixMenu+id)
}

func (s *BadgerStore) ListMenu(_ context.Context) ([]MenuItem, error) {
	return badgerList[MenuItem](s.db, prefixMenu)
}

func (s *BadgerStore) GetOrder(_ context.Context, id string) (Order, bool, error) {
	return badgerGet[Order](s.db, prefixOrders+id)
}

func (s *BadgerStore) SetOrder(_ context.Context, o Order) error {
	return badgerSet(s.db, prefixOrders+o.ID, o)
}

func (s *BadgerStore) ListOrders(_ context.Context) ([]Order, error) {
	return badgerList[Order](s.db, prefixOrders)
}

// AppendFeedback writes the entry under a timestamp-prefixed key so a prefix
// scan returns entries in append order.
func (s *BadgerStore) AppendFeedback(_ context.Context, f FeedbackEntry) error {
	key := fmt.Sprintf("%s%020d-%s", prefixFeedback, time.Now().UnixNano(), f.LogID)
	return badgerSet(s.db, key, f)
}

func (s *BadgerStore) ListFeedback(_ context.Context) ([]FeedbackEntry, error) {
	return badgerList[FeedbackEntry](s.db, prefixFeedback)
}

func (s *BadgerStore) SetPromotion(_ context.Context, p Promotion) error {
	return badgerSet(s.db, prefixPromos+p.ID, p)
}

func (s *BadgerStore) ListPromotions(_ context.Context) ([]Promotion, error) {
	return badgerList[Promotion](s.db, prefixPromos)
}

func (s *BadgerStore) GetSettings(_ context.Context) (SiteSettings, error) {
	settings, found, err := badgerGet[SiteSettings](s.db, keySettings)
	if err != nil {
		return SiteSettings{}, err
	}
	if !found {
		return DefaultSeed().Settings, nil
	}
	return settings, nil
}

func (s *BadgerStore) SetSettings(_ context.Context, settings SiteSettings) error {
	return badgerSet(s.db, keySettings, settings)
}

// Persist flushes the value log to disk. Individual writes are already
// transactional; this strengthens durability to survive a hard crash before
// the pipeline returns a confirmation to the customer.
func (s *BadgerStore) Persist(_ context.Context) error {
	if err := s.db.Sync(); err != nil {
		return fmt.Errorf("store: syncing badger: %w", err)
	}
	return nil
}
