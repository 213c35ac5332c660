package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v3"

	"github.com/finledger/transaction-service/internal/domain/apperr"
	"github.com/finledger/transaction-service/internal/domain/entity"
	"github.com/finledger/transaction-service/internal/domain/repository"
)

const (
	txPrefix     = "tx:"
	txSeqKey     = "seq:tx"
	seqBandwidth = 64
)

// BadgerTransactionRepository implements the transaction repository interface
// using BadgerDB. Records are stored as JSON under "tx:<id>"; IDs come from a
// Badger sequence and start at 1.
type BadgerTransactionRepository struct {
	db  *badger.DB
	seq *badger.Sequence
}

// NewBadgerTransactionRepository creates a new BadgerDB transaction repository.
func NewBadgerTransactionRepository(db *badger.DB) (*BadgerTransactionRepository, error) {
	seq, err := db.GetSequence([]byte(txSeqKey), seqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("failed to open id sequence: %w", err)
	}

	return &BadgerTransactionRepository{db: db, seq: seq}, nil
}

// Close releases the id sequence. Call before closing the database.
func (r *BadgerTransactionRepository) Close() error {
	return r.seq.Release()
}

func txKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", txPrefix, id))
}

// Store saves a transaction and returns its ID, assigning the next sequence
// value when the transaction has none yet.
func (r *BadgerTransactionRepository) Store(ctx context.Context, tx *entity.Transaction) (uint64, error) {
	if tx.ID == 0 {
		n, err := r.seq.Next()
		if err != nil {
			return 0, fmt.Errorf("failed to generate transaction id: %w", err)
		}
		tx.ID = n + 1 // sequence starts at 0, ids start at 1
	}

	data, err := json.Marshal(tx)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal transaction: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(txKey(tx.ID), data)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to store transaction: %w", err)
	}

	return tx.ID, nil
}

// FindByID retrieves a transaction by its unique identifier.
func (r *BadgerTransactionRepository) FindByID(ctx context.Context, id uint64) (*entity.Transaction, error) {
	var tx entity.Transaction

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(txKey(id))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &tx)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperr.TransactionNotFound()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to retrieve transaction: %w", err)
	}

	return &tx, nil
}

// FindPage retrieves one sorted page of transactions. Badger has no secondary
// indexes, so the page is produced by scanning the prefix, sorting in memory,
// and slicing.
func (r *BadgerTransactionRepository) FindPage(ctx context.Context, q repository.PageQuery) (*repository.Page, error) {
	var all []*entity.Transaction

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(txPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var tx entity.Transaction
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &tx)
			})
			if err != nil {
				return err
			}
			all = append(all, &tx)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan transactions: %w", err)
	}

	sortTransactions(all, q.SortField, q.SortDir)

	total := int64(len(all))
	totalPages := int(total / int64(q.Size))
	if total%int64(q.Size) != 0 {
		totalPages++
	}

	// Derive the slice bounds without computing Page*Size or start+Size
	// directly; both products overflow for extreme request values.
	start := len(all)
	if q.Page >= 0 && q.Page <= (len(all)-1)/q.Size {
		start = q.Page * q.Size
	}
	end := len(all)
	if q.Size < len(all)-start {
		end = start + q.Size
	}

	items := all[start:end]
	if items == nil {
		items = []*entity.Transaction{}
	}

	return &repository.Page{
		Items:         items,
		Page:          q.Page,
		Size:          q.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}

// Exists reports whether a transaction with the given ID is stored.
func (r *BadgerTransactionRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(txKey(id))
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check transaction existence: %w", err)
	}

	return true, nil
}

// Delete removes a transaction by ID.
func (r *BadgerTransactionRepository) Delete(ctx context.Context, id uint64) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(txKey(id))
	})
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	return nil
}

// sortTransactions orders txs by the given field and direction, breaking ties
// by ID so pages are stable across calls.
func sortTransactions(txs []*entity.Transaction, field string, dir repository.SortDirection) {
	less := func(a, b *entity.Transaction) bool {
		switch field {
		case "description":
			if a.Description != b.Description {
				return a.Description < b.Description
			}
		case "amount":
			if !a.Amount.Equal(b.Amount) {
				return a.Amount.LessThan(b.Amount)
			}
		case "type":
			if a.Type != b.Type {
				return a.Type < b.Type
			}
		case "createdAt":
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		case "updatedAt":
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.Before(b.UpdatedAt)
			}
		}
		return a.ID < b.ID
	}

	sort.Slice(txs, func(i, j int) bool {
		if dir == repository.SortDesc {
			return less(txs[j], txs[i])
		}
		return less(txs[i], txs[j])
	})
}
