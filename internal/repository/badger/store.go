// Package badger is an embedded entity store for single-node deployments,
// development and tests.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"cloudvault/internal/domain/repositories"
)

// Store wraps a badger database shared by the folder and file repositories.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens (or creates) a store at path. An empty path keeps everything in memory.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// TransactionManager returns a manager whose transactions the store's repositories join.
func (s *Store) TransactionManager() repositories.TransactionManager {
	return &transactionManager{store: s}
}

type transactionManager struct {
	store *Store
}

// ExecTx runs fn inside one read-write badger transaction. Very large
// cascades can exceed badger's transaction size limit (ErrTxnTooBig).
func (tm *transactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if txnFrom(ctx) != nil {
		return fn(ctx)
	}
	return tm.store.db.Update(func(txn *badger.Txn) error {
		return fn(withTxn(ctx, txn))
	})
}

type txnContextKey struct{}

func withTxn(ctx context.Context, txn *badger.Txn) context.Context {
	return context.WithValue(ctx, txnContextKey{}, txn)
}

func txnFrom(ctx context.Context) *badger.Txn {
	txn, _ := ctx.Value(txnContextKey{}).(*badger.Txn)
	return txn
}

// update runs fn in the transaction carried by ctx, or in a new read-write one.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if txn := txnFrom(ctx); txn != nil {
		return fn(txn)
	}
	return s.db.Update(fn)
}

// view runs fn in the transaction carried by ctx, or in a new read-only one.
func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if txn := txnFrom(ctx); txn != nil {
		return fn(txn)
	}
	return s.db.View(fn)
}

// getJSON loads the record at key. A missing key returns (nil, nil).
func getJSON[T any](txn *badger.Txn, key []byte) (*T, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var v T
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &v)
	}); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &v, nil
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return txn.Set(key, data)
}

// scanSuffixes returns what follows prefix in every key under it.
func scanSuffixes(txn *badger.Txn, prefix []byte) []string {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	var out []string
	for it.Rewind(); it.Valid(); it.Next() {
		key := it.Item().Key()
		out = append(out, string(key[len(prefix):]))
	}
	return out
}

// readIndex returns the value stored at an index key, or "" when absent.
func readIndex(txn *badger.Txn, key []byte) (string, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}
