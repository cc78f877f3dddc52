package appointment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/frontdesk/internal/model"
	"github.com/jwalitptl/frontdesk/internal/repository"
	"github.com/jwalitptl/frontdesk/pkg/errors"
	"github.com/jwalitptl/frontdesk/pkg/metrics"
	"github.com/jwalitptl/frontdesk/pkg/validator"
)

// Accepted appointment date-time layouts without a zone offset. They are
// read in the service's location; RFC 3339 input carries its own offset.
var localLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
}

type AppointmentService interface {
	Today() time.Time
	ListTodayAppointments(ctx context.Context) ([]*model.Appointment, error)
	ListBookablePatients(ctx context.Context) ([]*model.Patient, error)
	CreateAppointment(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error)
	CancelAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
}

type Service struct {
	store     repository.Store
	validator *validator.Validator
	now       func() time.Time
	loc       *time.Location
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the timezone that defines the calendar day and reads
// offset-less date-times.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		validator: validator.New(),
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns local midnight of the current day.
func (s *Service) Today() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

// ListTodayAppointments returns appointments of any status scheduled on the
// current calendar day, earliest first.
func (s *Service) ListTodayAppointments(ctx context.Context) ([]*model.Appointment, error) {
	start := s.Today()
	return s.store.Appointments().List(ctx, &model.AppointmentFilters{
		From: start,
		To:   start.AddDate(0, 0, 1),
	})
}

// ListBookablePatients returns the patients new appointments may be made for.
func (s *Service) ListBookablePatients(ctx context.Context) ([]*model.Patient, error) {
	return s.store.Patients().List(ctx, &model.PatientFilters{Status: model.PatientStatusActive})
}

// CreateAppointment schedules an appointment for an Active patient at a
// date-time that is not in the past.
func (s *Service) CreateAppointment(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	req.PatientID = strings.TrimSpace(req.PatientID)
	req.DoctorName = strings.TrimSpace(req.DoctorName)
	req.DateTime = strings.TrimSpace(req.DateTime)

	if err := s.validator.Partial(req, "PatientID"); err != nil {
		return nil, err
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, errors.Invalid("patient_id", "Valid patient selection is required")
	}

	var appointment *model.Appointment
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		patient, err := tx.Patients().Get(ctx, patientID)
		if err != nil {
			return err
		}
		if patient.Status != model.PatientStatusActive {
			return errors.Validation("Cannot create appointment for inactive patient")
		}

		if err := s.validator.Partial(req, "DoctorName", "DateTime"); err != nil {
			return err
		}
		at, err := s.parseDateTime(req.DateTime)
		if err != nil {
			return err
		}
		if at.Before(s.now()) {
			return errors.Invalid("appointment_datetime", "Cannot create appointment in the past")
		}

		appointment = &model.Appointment{
			Base:        model.Base{ID: uuid.New(), CreatedAt: s.now().UTC()},
			PatientID:   patient.ID,
			DoctorName:  req.DoctorName,
			ScheduledAt: at.UTC(),
			Status:      model.AppointmentStatusScheduled,
		}
		if err := tx.Appointments().Create(ctx, appointment); err != nil {
			return err
		}
		appointment.PatientName = patient.Name
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition("appointment", string(appointment.Status))
	log.Ctx(ctx).Info().
		Str("appointment_id", appointment.ID.String()).
		Str("patient_id", appointment.PatientID.String()).
		Msg("appointment scheduled")
	return appointment, nil
}

func (s *Service) parseDateTime(value string) (time.Time, error) {
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, s.loc); err == nil {
			return t, nil
		}
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Invalid("appointment_datetime", "Invalid date/time format")
}

// GetAppointment returns the appointment with its patient and, when one
// exists, its consultation.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	appointment, err := s.store.Appointments().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patient, err := s.store.Patients().Get(ctx, appointment.PatientID)
	if err != nil {
		return nil, err
	}

	detail := &model.AppointmentDetail{Appointment: appointment, Patient: patient}
	consultation, err := s.store.Consultations().GetByAppointment(ctx, id)
	switch {
	case err == nil:
		detail.Consultation = consultation
	case !errors.Is(err, errors.KindNotFound):
		return nil, err
	}
	return detail, nil
}

// CancelAppointment cancels a Scheduled appointment. Cancelling an already
// Cancelled appointment succeeds without writing; a Completed one is refused.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var (
		appointment *model.Appointment
		changed     bool
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		if appointment, err = tx.Appointments().GetForUpdate(ctx, id); err != nil {
			return err
		}
		switch appointment.Status {
		case model.AppointmentStatusCompleted:
			return errors.Validation("Cannot cancel a completed appointment")
		case model.AppointmentStatusCancelled:
			return nil
		}
		if err := tx.Appointments().UpdateStatus(ctx, id, model.AppointmentStatusCancelled); err != nil {
			return err
		}
		appointment.Status = model.AppointmentStatusCancelled
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.metrics.Transition("appointment", string(model.AppointmentStatusCancelled))
	}
	return appointment, nil
}
