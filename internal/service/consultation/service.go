package consultation

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

const (
	msgNotScheduled     = "Consultation can only be created for scheduled appointments"
	msgAlreadyExists    = "A consultation already exists for this appointment"
	msgNotDraft         = "Can only edit consultations in Draft status"
	msgAlreadyCompleted = "Consultation is already completed"
	msgCancelled        = "Cannot complete a consultation for a cancelled appointment"
)

type ConsultationService interface {
	PrepareConsultation(ctx context.Context, appointmentID uuid.UUID) (*model.AppointmentDetail, error)
	CreateConsultation(ctx context.Context, appointmentID uuid.UUID, req *model.ConsultationRequest) (*model.Consultation, error)
	GetConsultation(ctx context.Context, id uuid.UUID) (*model.ConsultationDetail, error)
	PrepareEdit(ctx context.Context, id uuid.UUID) (*model.ConsultationDetail, error)
	EditConsultation(ctx context.Context, id uuid.UUID, req *model.ConsultationRequest) (*model.Consultation, error)
	CompleteConsultation(ctx context.Context, id uuid.UUID) (*model.Consultation, error)
	ListPatientConsultations(ctx context.Context, patientID uuid.UUID) (*model.Patient, []*model.Consultation, error)
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

// checkCreatable reports why appointment cannot receive a consultation, if
// it cannot.
func checkCreatable(ctx context.Context, store repository.Store, appointment *model.Appointment) error {
	if appointment.Status != model.AppointmentStatusScheduled {
		return errors.Validation(msgNotScheduled)
	}
	_, err := store.Consultations().GetByAppointment(ctx, appointment.ID)
	switch {
	case err == nil:
		return errors.Validation(msgAlreadyExists)
	case errors.Is(err, errors.KindNotFound):
		return nil
	default:
		return err
	}
}

// PrepareConsultation checks that a consultation may be started for the
// appointment and returns what the form needs to show.
func (s *Service) PrepareConsultation(ctx context.Context, appointmentID uuid.UUID) (*model.AppointmentDetail, error) {
	appointment, err := s.store.Appointments().Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := checkCreatable(ctx, s.store, appointment); err != nil {
		return nil, err
	}
	patient, err := s.store.Patients().Get(ctx, appointment.PatientID)
	if err != nil {
		return nil, err
	}
	return &model.AppointmentDetail{Appointment: appointment, Patient: patient}, nil
}

// CreateConsultation opens a Draft consultation for a Scheduled appointment
// that has none. The appointment row stays locked until commit.
func (s *Service) CreateConsultation(ctx context.Context, appointmentID uuid.UUID, req *model.ConsultationRequest) (*model.Consultation, error) {
	req.Vitals = strings.TrimSpace(req.Vitals)
	req.Notes = strings.TrimSpace(req.Notes)

	var consultation *model.Consultation
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		appointment, err := tx.Appointments().GetForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if err := checkCreatable(ctx, tx, appointment); err != nil {
			return err
		}
		if err := s.validator.Struct(req); err != nil {
			return err
		}

		consultation = &model.Consultation{
			Base:          model.Base{ID: uuid.New(), CreatedAt: s.now().UTC()},
			AppointmentID: appointment.ID,
			PatientID:     appointment.PatientID,
			Vitals:        req.Vitals,
			Notes:         req.Notes,
			Status:        model.ConsultationStatusDraft,
		}
		return tx.Consultations().Create(ctx, consultation)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition("consultation", string(consultation.Status))
	log.Ctx(ctx).Info().
		Str("consultation_id", consultation.ID.String()).
		Str("appointment_id", appointmentID.String()).
		Msg("consultation created")
	return consultation, nil
}

// GetConsultation returns the consultation joined with its appointment and
// patient.
func (s *Service) GetConsultation(ctx context.Context, id uuid.UUID) (*model.ConsultationDetail, error) {
	consultation, err := s.store.Consultations().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	appointment, err := s.store.Appointments().Get(ctx, consultation.AppointmentID)
	if err != nil {
		return nil, err
	}
	patient, err := s.store.Patients().Get(ctx, consultation.PatientID)
	if err != nil {
		return nil, err
	}
	return &model.ConsultationDetail{
		Consultation: consultation,
		Appointment:  appointment,
		Patient:      patient,
	}, nil
}

// PrepareEdit returns the consultation for the edit form, refusing anything
// but a Draft.
func (s *Service) PrepareEdit(ctx context.Context, id uuid.UUID) (*model.ConsultationDetail, error) {
	detail, err := s.GetConsultation(ctx, id)
	if err != nil {
		return nil, err
	}
	if detail.Consultation.Status != model.ConsultationStatusDraft {
		return nil, errors.Validation(msgNotDraft)
	}
	return detail, nil
}

// EditConsultation replaces vitals and notes of a Draft consultation.
func (s *Service) EditConsultation(ctx context.Context, id uuid.UUID, req *model.ConsultationRequest) (*model.Consultation, error) {
	req.Vitals = strings.TrimSpace(req.Vitals)
	req.Notes = strings.TrimSpace(req.Notes)

	var consultation *model.Consultation
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		if consultation, err = tx.Consultations().Get(ctx, id); err != nil {
			return err
		}
		if consultation.Status != model.ConsultationStatusDraft {
			return errors.Validation(msgNotDraft)
		}
		if err := s.validator.Struct(req); err != nil {
			return err
		}

		consultation.Vitals = req.Vitals
		consultation.Notes = req.Notes
		return tx.Consultations().Update(ctx, consultation)
	})
	if err != nil {
		return nil, err
	}
	return consultation, nil
}

// CompleteConsultation marks the consultation and its appointment Completed
// in one transaction.
func (s *Service) CompleteConsultation(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	var consultation *model.Consultation
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		if consultation, err = tx.Consultations().Get(ctx, id); err != nil {
			return err
		}
		if consultation.Status == model.ConsultationStatusCompleted {
			return errors.Validation(msgAlreadyCompleted)
		}

		appointment, err := tx.Appointments().GetForUpdate(ctx, consultation.AppointmentID)
		if err != nil {
			return err
		}
		if appointment.Status == model.AppointmentStatusCancelled {
			return errors.Validation(msgCancelled)
		}

		if err := tx.Consultations().UpdateStatus(ctx, id, model.ConsultationStatusCompleted); err != nil {
			return err
		}
		if err := tx.Appointments().UpdateStatus(ctx, appointment.ID, model.AppointmentStatusCompleted); err != nil {
			return err
		}
		consultation.Status = model.ConsultationStatusCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition("consultation", string(model.ConsultationStatusCompleted))
	s.metrics.Transition("appointment", string(model.AppointmentStatusCompleted))
	log.Ctx(ctx).Info().
		Str("consultation_id", id.String()).
		Str("appointment_id", consultation.AppointmentID.String()).
		Msg("consultation completed")
	return consultation, nil
}

// ListPatientConsultations returns the patient's Completed consultations,
// newest first.
func (s *Service) ListPatientConsultations(ctx context.Context, patientID uuid.UUID) (*model.Patient, []*model.Consultation, error) {
	patient, err := s.store.Patients().Get(ctx, patientID)
	if err != nil {
		return nil, nil, err
	}
	consultations, err := s.store.Consultations().List(ctx, &model.ConsultationFilters{
		PatientID: patientID,
		Status:    model.ConsultationStatusCompleted,
	})
	if err != nil {
		return nil, nil, err
	}
	return patient, consultations, nil
}
