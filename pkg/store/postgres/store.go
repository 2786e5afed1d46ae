// Package postgres stores submissions in PostgreSQL through gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/store"
)

// Row is the gorm model for the submissions table.
type Row struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Form      string    `gorm:"type:text;not null;index:idx_submissions_form_created,priority:1"`
	Data      string    `gorm:"type:jsonb;not null"`
	CreatedAt time.Time `gorm:"not null;index:idx_submissions_form_created,priority:2,sort:desc"`
}

// TableName pins the table name.
func (Row) TableName() string { return "submissions" }

// Store persists submissions with gorm.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn and migrates the submissions table.
func Open(dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres: dsn is required")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	return New(db)
}

// New wraps an existing gorm handle and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("postgres: db is required")
	}
	if err := db.AutoMigrate(&Row{}); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
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

func (s *Store) Save(ctx context.Context, submission model.Submission) error {
	row, err := ToRow(submission)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("postgres: save submission: %w", err)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, form, id string) (model.Submission, error) {
	var row Row
	err := s.db.WithContext(ctx).Where("form = ? AND id = ?", form, id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Submission{}, store.ErrNotFound
		}
		return model.Submission{}, fmt.Errorf("postgres: find submission: %w", err)
	}
	return FromRow(row)
}

// List returns the form's submissions, newest first.
func (s *Store) List(ctx context.Context, form string) ([]model.Submission, error) {
	var rows []Row
	err := s.db.WithContext(ctx).
		Where("form = ?", form).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: list submissions: %w", err)
	}
	out := make([]model.Submission, 0, len(rows))
	for _, row := range rows {
		sub, err := FromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

// ToRow maps a submission onto its table row.
func ToRow(submission model.Submission) (Row, error) {
	if strings.TrimSpace(submission.ID) == "" {
		return Row{}, fmt.Errorf("postgres: submission id is required")
	}
	if strings.TrimSpace(submission.Form) == "" {
		return Row{}, fmt.Errorf("postgres: submission form is required")
	}
	raw, err := store.EncodeData(submission.Data)
	if err != nil {
		return Row{}, err
	}
	createdAt := submission.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return Row{
		ID:        submission.ID,
		Form:      submission.Form,
		Data:      string(raw),
		CreatedAt: createdAt.UTC(),
	}, nil
}

// FromRow restores a submission from its table row.
func FromRow(row Row) (model.Submission, error) {
	data, err := store.DecodeData([]byte(row.Data))
	if err != nil {
		return model.Submission{}, err
	}
	return model.Submission{
		ID:        row.ID,
		Form:      row.Form,
		Data:      data,
		CreatedAt: row.CreatedAt.UTC(),
	}, nil
}
