// Package store persists extraction runs in a SQLite database.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/ccollicutt/ifextract/pkg/extract"
	"github.com/ccollicutt/ifextract/pkg/logger"
	"github.com/ccollicutt/ifextract/pkg/output"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// DefaultListLimit bounds List when no limit is given.
const DefaultListLimit = 50

// Store is a run history backed by SQLite.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	gormConfig := &gorm.Config{
		Logger: gormLogger.New(
			logger.GetLogger(),
			gormLogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormLogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)"
	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        dsn,
	}, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// Single connection so the pragmas apply to every statement.
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Run{}, &InterfaceRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	logger.Debugf("run history opened at %s", path)
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save stores a report and its rows in one transaction and returns the new run.
func (s *Store) Save(ctx context.Context, report *output.Report, exportURL string) (*Run, error) {
	cols, err := json.Marshal(report.Table.Columns)
	if err != nil {
		return nil, fmt.Errorf("encoding columns: %w", err)
	}

	sections := make([]string, len(report.Metadata.Sections))
	for i, k := range report.Metadata.Sections {
		sections[i] = string(k)
	}

	run := &Run{
		Source:               report.Metadata.Source,
		Encoding:             report.Metadata.Encoding,
		Sections:             strings.Join(sections, ","),
		Rows:                 report.Summary.Rows,
		ConfigurationRecords: report.Summary.ConfigurationRecords,
		StatusRecords:        report.Summary.StatusRecords,
		Columns:              string(cols),
		ExportURL:            exportURL,
		Duration:             report.Metadata.Duration.Milliseconds(),
	}

	for i, row := range report.Table.Rows {
		cells, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("encoding row %d: %w", i, err)
		}
		run.Interfaces = append(run.Interfaces, InterfaceRow{
			Position: i,
			Name:     row[extract.KeyName],
			Cells:    string(cells),
		})
	}

	// Create saves the run and its interfaces in one transaction.
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("saving run: %w", err)
	}

	logger.WithField("run_id", run.ID).Debugf("stored %d rows", len(run.Interfaces))
	return run, nil
}

// List returns the most recent runs, newest first, without their rows.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var runs []Run
	err := s.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// Get returns one run with its rows in table order.
func (s *Store) Get(ctx context.Context, id uint) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).
		Preload("Interfaces", func(db *gorm.DB) *gorm.DB {
			return db.Order("position")
		}).
		First(&run, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %d: %w", id, err)
	}
	return &run, nil
}

// Delete removes a run and its rows.
func (s *Store) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&InterfaceRow{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Run{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %d", ErrRunNotFound, id)
		}
		return nil
	})
}
