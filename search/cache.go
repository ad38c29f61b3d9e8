package search

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"beruang/domain"
)

const cacheTTL = 6 * time.Hour

// Cache stores formatted web results keyed by query. Entries expire via
// badger's native TTL; only search results are cached, never chat state.
type Cache struct {
	db  *badger.DB
	log *slog.Logger
}

func NewCache(db *badger.DB, log *slog.Logger) *Cache {
	return &Cache{db: db, log: log}
}

func cacheKey(query string) []byte {
	return []byte("websearch:" + query)
}

// Get returns the cached result for query, or false on miss or decode
// failure. Cache errors are never surfaced to the request path.
func (c *Cache) Get(query string) (*domain.SearchResult, bool) {
	var result domain.SearchResult
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(query))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &result)
		})
	})
	if err != nil {
		if err != badger.ErrKeyNotFound {
			c.log.Warn("Search cache read failed", "err", err)
		}
		return nil, false
	}
	return &result, true
}

// Set stores the result with the cache TTL. Failures are logged and
// swallowed; a cold cache is always acceptable.
func (c *Cache) Set(query string, result *domain.SearchResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		c.log.Warn("Search cache encode failed", "err", err)
		return
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(cacheKey(query), payload).WithTTL(cacheTTL)
		return txn.SetEntry(entry)
	})
	if err != nil {
		c.log.Warn("Search cache write failed", "err", err)
	}
}
