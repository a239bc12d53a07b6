package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type sqlRecord struct {
	Key       string    `gorm:"column:cache_key;primaryKey"`
	Data      []byte    `gorm:"column:data"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
	TTL       int64     `gorm:"column:ttl_ns"`
}

func (sqlRecord) TableName() string {
	return "cache_entries"
}

// SQLStore keeps records in a single SQLite database.
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLStore opens (creating if needed) the database at path.
func OpenSQLStore(path string) (*SQLStore, error) {
	// busy_timeout lets concurrent helpcomp processes wait for the writer
	// instead of failing with SQLITE_BUSY.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(1)", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := db.AutoMigrate(&sqlRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (Record, error) {
	var row sqlRecord
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return row.record(), nil
}

func (s *SQLStore) Put(ctx context.Context, rec Record) error {
	row := sqlRecord{
		Key:       rec.Key,
		Data:      rec.Data,
		CreatedAt: rec.CreatedAt.UTC(),
		TTL:       int64(rec.TTL),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "created_at", "ttl_ns"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("cache_key = ?", key).Delete(&sqlRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]Record, error) {
	var rows []struct {
		RecordKey string
		CreatedAt time.Time
		TTL       int64
		Size      int64
	}
	err := s.db.WithContext(ctx).Model(&sqlRecord{}).
		Select("cache_key AS record_key, created_at, ttl_ns AS ttl, length(data) AS size").
		Order("cache_key").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record{Key: r.RecordKey, CreatedAt: r.CreatedAt, TTL: time.Duration(r.TTL), Size: r.Size})
	}
	return out, nil
}

func (s *SQLStore) Prune(ctx context.Context, drop func(Record) bool) (int, error) {
	removed := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []sqlRecord
		if err := tx.Select("cache_key", "created_at", "ttl_ns").Find(&rows).Error; err != nil {
			return err
		}
		var keys []string
		for _, row := range rows {
			if drop(row.record()) {
				keys = append(keys, row.Key)
			}
		}
		if len(keys) == 0 {
			return nil
		}
		res := tx.Where("cache_key IN ?", keys).Delete(&sqlRecord{})
		removed = int(res.RowsAffected)
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return removed, nil
}

func (s *SQLStore) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&sqlRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r sqlRecord) record() Record {
	return Record{
		Key:       r.Key,
		Data:      r.Data,
		CreatedAt: r.CreatedAt,
		TTL:       time.Duration(r.TTL),
		Size:      int64(len(r.Data)),
	}
}
