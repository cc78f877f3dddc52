package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/frontdesk/internal/repository"
	"github.com/jwalitptl/frontdesk/pkg/errors"
	"github.com/jwalitptl/frontdesk/pkg/metrics"
)

// Store is the PostgreSQL implementation of repository.Store.
type Store struct {
	db      *sqlx.DB
	q       sqlx.ExtContext
	inTx    bool
	metrics *metrics.Metrics
}

type Option func(*Store)

// WithMetrics records transaction outcomes and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func NewStore(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{db: db, q: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetDB returns the database instance
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

func (s *Store) Patients() repository.PatientRepository {
	return &patientRepository{q: s.q}
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{q: s.q}
}

func (s *Store) Consultations() repository.ConsultationRepository {
	return &consultationRepository{q: s.q}
}

// WithTx executes a function within a transaction
func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	start := time.Now()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Persistence("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			s.metrics.ObserveTx(start, fmt.Errorf("panic: %v", p))
			panic(p)
		}
	}()

	txStore := &Store{db: s.db, q: tx, inTx: true, metrics: s.metrics}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		s.metrics.ObserveTx(start, err)
		return err
	}

	if err := tx.Commit(); err != nil {
		s.metrics.ObserveTx(start, err)
		return errors.Persistence("commit transaction", err)
	}
	s.metrics.ObserveTx(start, nil)
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Persistence("reach database", err)
	}
	return nil
}
