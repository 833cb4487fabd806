// Package cache implements the local persistent cache backing the
// synchronization layer's instant first paint.
//
// Values are serialized as JSON and stored with an absolute expiry in a
// SQLite database (pure-Go driver, no CGO). The contract is deliberately
// small: a Get only succeeds while the stored expiry is in the future;
// expired rows are deleted on read and the caller falls through to a
// network fetch. There is no eviction beyond expiry-on-read; the key set
// is small and fixed (one key per entity type).
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// DefaultTTL is the cache lifetime used by callers that do not pick one.
const DefaultTTL = 10 * time.Minute

type entry struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte
	ExpiresAt time.Time
}

// Cache is a TTL key-value store persisted in a SQLite file.
type Cache struct {
	db  *gorm.DB
	log zerolog.Logger

	// now is swappable for expiry tests.
	now func() time.Time
}

// Open opens or creates the cache database at path.
func Open(path string, log zerolog.Logger) (*Cache, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_time_format=sqlite"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger:      gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	// WAL with NORMAL sync keeps reads cheap without risking corruption.
	if err := db.Exec("PRAGMA journal_mode = WAL;").Error; err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := db.Exec("PRAGMA synchronous = NORMAL;").Error; err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	// SQLite supports one writer at a time.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cache schema: %w", err)
	}

	return &Cache{db: db, log: log, now: time.Now}, nil
}

// Get loads the value stored under key into out and reports whether a
// non-expired entry existed. An expired entry is removed and reported as a
// miss.
func (c *Cache) Get(key string, out any) bool {
	var e entry
	result := c.db.Where("key = ?", key).First(&e)
	if result.Error != nil {
		return false
	}

	if !e.ExpiresAt.After(c.now()) {
		if err := c.db.Delete(&entry{}, "key = ?", key).Error; err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("failed to remove expired cache entry")
		}
		return false
	}

	if err := json.Unmarshal(e.Value, out); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		return false
	}
	return true
}

// Set stores v under key with the given lifetime, replacing any previous
// entry.
func (c *Cache) Set(key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize cache value for %s: %w", key, err)
	}

	e := entry{Key: key, Value: data, ExpiresAt: c.now().Add(ttl)}
	if err := c.db.Save(&e).Error; err != nil {
		return fmt.Errorf("failed to store cache entry %s: %w", key, err)
	}
	return nil
}

// Delete removes the entry stored under key, if any.
func (c *Cache) Delete(key string) error {
	if err := c.db.Delete(&entry{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get cache database handle: %w", err)
	}
	return sqlDB.Close()
}
