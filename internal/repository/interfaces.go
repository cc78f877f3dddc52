package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/frontdesk/internal/model"
)

// All repository interfaces in one file
type (
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.PatientStatus) error
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// GetForUpdate reads the appointment and holds it against concurrent
		// writers until the surrounding transaction ends.
		GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	}

	ConsultationRepository interface {
		Create(ctx context.Context, consultation *model.Consultation) error
		Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error)
		GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Consultation, error)
		// Update writes vitals and notes only.
		Update(ctx context.Context, consultation *model.Consultation) error
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.ConsultationStatus) error
		List(ctx context.Context, filters *model.ConsultationFilters) ([]*model.Consultation, error)
	}
)

// Store hands out repositories bound to one connection scope. Repositories
// obtained from the Store passed to WithTx's fn share that transaction.
type Store interface {
	Patients() PatientRepository
	Appointments() AppointmentRepository
	Consultations() ConsultationRepository

	// WithTx runs fn in a transaction. It commits when fn returns nil and
	// rolls back otherwise, leaving prior state intact. Calling WithTx on a
	// transaction-bound Store joins the running transaction.
	WithTx(ctx context.Context, fn func(Store) error) error

	Ping(ctx context.Context) error
}
