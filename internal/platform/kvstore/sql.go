package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/rikai-backend/internal/platform/logger"
)

// Entry is one row of kv_entries. Values are JSON documents.
type Entry struct {
	Key       string         `gorm:"column:key;primaryKey;size:255"`
	Value     datatypes.JSON `gorm:"column:value;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null"`
}

func (Entry) TableName() string { return "kv_entries" }

type sqlStore struct {
	log *logger.Logger
	db  *gorm.DB
}

func NewSQLite(log *logger.Logger, path string) (Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("missing KV_SQLITE_PATH")
	}
	return openSQL(log, "SQLiteKVStore", sqlite.Open(path))
}

func NewPostgres(log *logger.Logger, dsn string) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("missing KV_POSTGRES_DSN")
	}
	return openSQL(log, "PostgresKVStore", postgres.Open(dsn))
}

// NewSQL wraps an already opened gorm handle and migrates kv_entries.
func NewSQL(log *logger.Logger, db *gorm.DB) (Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate kv_entries: %w", err)
	}
	return &sqlStore{log: log.With("service", "SQLKVStore"), db: db}, nil
}

func openSQL(log *logger.Logger, name string, dialector gorm.Dialector) (Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("%s open: %w", name, err)
	}
	s, err := NewSQL(log, db)
	if err != nil {
		return nil, err
	}
	s.(*sqlStore).log = log.With("service", name)
	return s, nil
}

func (s *sqlStore) Get(ctx context.Context, key string) ([]byte, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return []byte(e.Value), nil
}

func (s *sqlStore) Set(ctx context.Context, key string, value []byte) error {
	e := Entry{Key: key, Value: datatypes.JSON(value), UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

func (s *sqlStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}

func (s *sqlStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
