package postgres

import (
	"database/sql"
	stderrors "errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/frontdesk/pkg/errors"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"

	consultationAppointmentKey = "consultations_appointment_id_key"
)

// Repositories run their statements on q, which is either the pool or the
// open transaction of the Store that created them.
type patientRepository struct {
	q sqlx.ExtContext
}

type appointmentRepository struct {
	q sqlx.ExtContext
}

type consultationRepository struct {
	q sqlx.ExtContext
}

// translate maps driver errors onto the application's error kinds.
func translate(err error, resource, op string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound(resource, err)
	}

	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		switch {
		case pqErr.Code == codeUniqueViolation && pqErr.Constraint == consultationAppointmentKey:
			return &errors.AppError{
				Kind:    errors.KindValidation,
				Message: "A consultation already exists for this appointment",
				Err:     err,
			}
		case pqErr.Code == codeForeignKeyViolation:
			return errors.NotFound("referenced record", err)
		}
	}
	return errors.Persistence(op, err)
}

// requireRow turns an update that touched nothing into NotFound.
func requireRow(res sql.Result, resource, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Persistence(op, err)
	}
	if n == 0 {
		return errors.NotFound(resource, nil)
	}
	return nil
}
