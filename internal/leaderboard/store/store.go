// Package store persists leaderboard entries in SQLite through gorm.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zappabad/bullbear/internal/leaderboard"
)

// Store wraps the leaderboard table.
type Store struct {
	db *gorm.DB
}

// New opens (and migrates) the SQLite database at path.
func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("leaderboard store: empty database path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&leaderboard.Entry{}); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: a little parallelism for concurrent HTTP reads while
	// keeping lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)

	return &Store{db: db}, nil
}

// Insert stores a new entry. Missing id and timestamp are filled in.
func (s *Store) Insert(ctx context.Context, e leaderboard.Entry) (leaderboard.Entry, error) {
	if s == nil || s.db == nil {
		return leaderboard.Entry{}, fmt.Errorf("leaderboard store not initialized")
	}
	if strings.TrimSpace(e.PlayerName) == "" {
		return leaderboard.Entry{}, fmt.Errorf("leaderboard store: player name required")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		return leaderboard.Entry{}, err
	}
	return e, nil
}

// Top returns the highest-scoring entries, optionally filtered by
// difficulty.
func (s *Store) Top(ctx context.Context, difficulty string, limit int) ([]leaderboard.Entry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("leaderboard store not initialized")
	}
	if limit <= 0 || limit > 500 {
		limit = 20
	}
	query := s.db.WithContext(ctx).Model(&leaderboard.Entry{})
	if d := strings.ToLower(strings.TrimSpace(difficulty)); d != "" {
		query = query.Where("difficulty = ?", d)
	}
	var entries []leaderboard.Entry
	if err := query.
		Order("score DESC, created_at ASC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
