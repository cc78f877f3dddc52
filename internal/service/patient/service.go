package patient

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/frontdesk/internal/model"
	"github.com/jwalitptl/frontdesk/internal/repository"
	"github.com/jwalitptl/frontdesk/pkg/metrics"
	"github.com/jwalitptl/frontdesk/pkg/validator"
)

type PatientService interface {
	CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	ListPatients(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
	UpdatePatientStatus(ctx context.Context, id uuid.UUID, req *model.UpdatePatientStatusRequest) (*model.Patient, error)
}

type Service struct {
	store     repository.Store
	validator *validator.Validator
	now       func() time.Time
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		validator: validator.New(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePatient registers a new Active patient.
func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Gender = strings.TrimSpace(req.Gender)
	req.Age = strings.TrimSpace(req.Age)
	req.Phone = strings.TrimSpace(req.Phone)

	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	// the "age" rule guarantees a small non-negative integer
	age, _ := strconv.Atoi(req.Age)

	patient := &model.Patient{
		Base:   model.Base{ID: uuid.New(), CreatedAt: s.now().UTC()},
		Name:   req.Name,
		Gender: req.Gender,
		Age:    age,
		Phone:  req.Phone,
		Status: model.PatientStatusActive,
	}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		return tx.Patients().Create(ctx, patient)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition("patient", string(patient.Status))
	log.Ctx(ctx).Info().Str("patient_id", patient.ID.String()).Msg("patient created")
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return s.store.Patients().Get(ctx, id)
}

// ListPatients returns every patient, or those whose name or phone contains
// filters.SearchTerm regardless of case.
func (s *Service) ListPatients(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	if filters == nil {
		filters = &model.PatientFilters{}
	}
	f := *filters
	f.SearchTerm = strings.TrimSpace(f.SearchTerm)
	return s.store.Patients().List(ctx, &f)
}

func (s *Service) UpdatePatientStatus(ctx context.Context, id uuid.UUID, req *model.UpdatePatientStatusRequest) (*model.Patient, error) {
	req.Status = strings.TrimSpace(req.Status)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	status := model.PatientStatus(req.Status)

	var patient *model.Patient
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		if patient, err = tx.Patients().Get(ctx, id); err != nil {
			return err
		}
		if err := tx.Patients().UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		patient.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition("patient", string(status))
	return patient, nil
}
