package deadletter

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("dead letter not found")

// DefaultListLimit caps List when Filter.Limit is not set.
const DefaultListLimit = 100

// Filter selects records for List.
type Filter struct {
	// Topic restricts the result to one logical topic when set.
	Topic string

	PhysicalTopic string
	MessageID     string

	// Limit caps the number of records returned.
	// Default: DefaultListLimit
	Limit int
}

// Store persists dead letters.
type Store interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, id uint) (*Record, error)
	List(ctx context.Context, f Filter) ([]Record, error)
	Delete(ctx context.Context, id uint) error
}

// DB is the database handle of the Postgres store; *postgres.Postgres
// implements it.
type DB interface {
	DB(ctx context.Context) (*gorm.DB, error)
}

// PostgresStore is a Store backed by the dead_letters table.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a store on db. Call Migrate before first use.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates or updates the dead_letters table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	db, err := s.db.DB(ctx)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("migrating dead letters: %w", err)
	}
	return nil
}

// Save inserts r and sets its ID.
func (s *PostgresStore) Save(ctx context.Context, r *Record) error {
	db, err := s.db.DB(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(r).Error; err != nil {
		return fmt.Errorf("saving dead letter for %q: %w", r.PhysicalTopic, err)
	}
	return nil
}

// Get returns the record with id, or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, id uint) (*Record, error) {
	db, err := s.db.DB(ctx)
	if err != nil {
		return nil, err
	}

	var r Record
	if err := db.First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("loading dead letter %d: %w", id, err)
	}
	return &r, nil
}

// List returns records matching f, oldest first.
func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Record, error) {
	db, err := s.db.DB(ctx)
	if err != nil {
		return nil, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := db.Order("id").Limit(limit)
	if f.Topic != "" {
		query = query.Where("topic = ?", f.Topic)
	}
	if f.PhysicalTopic != "" {
		query = query.Where("physical_topic = ?", f.PhysicalTopic)
	}
	if f.MessageID != "" {
		query = query.Where("message_id = ?", f.MessageID)
	}

	var records []Record
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing dead letters: %w", err)
	}
	return records, nil
}

// Delete removes the record with id, or returns ErrNotFound.
func (s *PostgresStore) Delete(ctx context.Context, id uint) error {
	db, err := s.db.DB(ctx)
	if err != nil {
		return err
	}

	res := db.Delete(&Record{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting dead letter %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}
