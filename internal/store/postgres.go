package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type roomSnapshot struct {
	Code      string `gorm:"primaryKey;size:16"`
	Data      []byte
	UpdatedAt time.Time
	ExpiresAt time.Time `gorm:"index"`
}

func (roomSnapshot) TableName() string { return "room_snapshots" }

// Postgres persists room snapshots with a bounded expiry. It is a
// crash-recovery cache, not an archive.
type Postgres struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewPostgres(dsn string, ttl time.Duration) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	if err := db.AutoMigrate(&roomSnapshot{}); err != nil {
		return nil, fmt.Errorf("migrate snapshot store: %w", err)
	}
	return &Postgres{db: db, ttl: ttl}, nil
}

func (p *Postgres) Save(ctx context.Context, code string, data []byte) error {
	rec := roomSnapshot{
		Code:      code,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(p.ttl),
	}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		UpdateAll: true,
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", code, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, code string) error {
	if err := p.db.WithContext(ctx).Delete(&roomSnapshot{}, "code = ?", code).Error; err != nil {
		return fmt.Errorf("delete snapshot %s: %w", code, err)
	}
	return nil
}

// LoadAll returns every non-expired snapshot and sweeps the expired rows.
func (p *Postgres) LoadAll(ctx context.Context) (map[string][]byte, error) {
	now := time.Now().UTC()
	p.db.WithContext(ctx).Delete(&roomSnapshot{}, "expires_at <= ?", now)

	var recs []roomSnapshot
	if err := p.db.WithContext(ctx).Where("expires_at > ?", now).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	out := make(map[string][]byte, len(recs))
	for _, rec := range recs {
		out[rec.Code] = rec.Data
	}
	return out, nil
}
