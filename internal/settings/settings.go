// Package settings reads dynamic JSON configuration values from the
// gateway_settings table, optionally through a short-TTL redis cache.
// Values are hot-reloadable: writers update the table and the cache
// expires on its own.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store provides read-through access to JSON settings.
type Store struct {
	db  *sql.DB
	rdb *redis.Client // nil disables caching
	ttl time.Duration
}

// New creates a settings store. rdb may be nil, in which case every
// read goes to the database.
func New(db *sql.DB, rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{db: db, rdb: rdb, ttl: ttl}
}

func cacheKey(key string) string {
	return "gateway:setting:" + key
}

// GetJSON loads the setting under key into dest. The boolean reports
// whether the key exists. Redis being unavailable or holding a stale
// unparseable value never fails the read; it falls through to the
// database.
func (s *Store) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey(key)).Result()
		if err == nil {
			if jsonErr := json.Unmarshal([]byte(cached), dest); jsonErr == nil {
				return true, nil
			}
		} else if err != redis.Nil {
			log.Printf("settings: redis get %s: %v", key, err)
		}
	}

	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM gateway_settings WHERE key = $1`, key,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get setting %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode setting %s: %w", key, err)
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, cacheKey(key), raw, s.ttl).Err(); err != nil {
			log.Printf("settings: redis set %s: %v", key, err)
		}
	}
	return true, nil
}

// SetJSON upserts a setting and drops its cache entry so the next read
// observes the new value immediately.
func (s *Store) SetJSON(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO gateway_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()
	`, key, raw)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}

	if s.rdb != nil {
		if err := s.rdb.Del(ctx, cacheKey(key)).Err(); err != nil {
			log.Printf("settings: redis del %s: %v", key, err)
		}
	}
	return nil
}
