// Package runstore implements the RunStore port on SQLite, keeping a
// history of analysis runs and the insolvencies they found.
package runstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fd1az/vaultscope/business/solvency/app"
	"github.com/fd1az/vaultscope/business/solvency/domain"
	"github.com/fd1az/vaultscope/internal/apperror"
)

// Run is one persisted analysis run.
type Run struct {
	ID                uint      `gorm:"primaryKey"`
	Timestamp         time.Time `gorm:"index"`
	Solvent           bool
	EntityCount       int
	InsolventCount    int
	TotalShortfallUSD string

	Insolvencies []Insolvency `gorm:"constraint:OnDelete:CASCADE"`
}

// Insolvency is one insolvent entity within a run.
type Insolvency struct {
	ID           uint `gorm:"primaryKey"`
	RunID        uint `gorm:"index"`
	EntityID     string
	EntityType   string
	ShortfallUSD string
}

// Ensure Store implements the RunStore port.
var _ app.RunStore = (*Store)(nil)

// Store persists run history in a SQLite file.
type Store struct {
	db *gorm.DB
}

// NewStore opens (or creates) the database at path and migrates the schema.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&Run{}, &Insolvency{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveRun records the outcome of one analysis run.
func (s *Store) SaveRun(ctx context.Context, report *domain.Report) error {
	run := Run{
		Timestamp:         report.Timestamp,
		Solvent:           report.Solvent,
		EntityCount:       len(report.Details),
		InsolventCount:    len(report.InsolventEntities),
		TotalShortfallUSD: report.TotalShortfallUSD.StringFixed(2),
	}

	for _, d := range report.Details {
		if !d.Insolvent {
			continue
		}
		run.Insolvencies = append(run.Insolvencies, Insolvency{
			EntityID:     string(d.Entity.ID),
			EntityType:   string(d.Entity.Type),
			ShortfallUSD: d.Cascade.ShortfallUSD.StringFixed(2),
		})
	}

	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return apperror.Internal(apperror.CodeRunStoreFailed, "saving run", err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	var runs []Run
	err := s.db.WithContext(ctx).
		Preload("Insolvencies").
		Order("timestamp desc").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, apperror.Internal(apperror.CodeRunStoreFailed, "listing runs", err)
	}
	return runs, nil
}

// InsolvencyHistory returns every recorded insolvency of one entity,
// newest first.
func (s *Store) InsolvencyHistory(ctx context.Context, entityID domain.EntityID) ([]Insolvency, error) {
	var out []Insolvency
	err := s.db.WithContext(ctx).
		Joins("JOIN runs ON runs.id = insolvencies.run_id").
		Where("insolvencies.entity_id = ?", string(entityID)).
		Order("runs.timestamp desc").
		Find(&out).Error
	if err != nil {
		return nil, apperror.Internal(apperror.CodeRunStoreFailed, string(entityID), err)
	}
	return out, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
