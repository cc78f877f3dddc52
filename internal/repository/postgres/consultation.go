package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/frontdesk/internal/model"
)

const consultationColumns = `id, appointment_id, patient_id, vitals, notes, status, created_at`

func (r *consultationRepository) Create(ctx context.Context, consultation *model.Consultation) error {
	query := `
		INSERT INTO consultations (
			id, appointment_id, patient_id, vitals, notes, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if consultation.ID == uuid.Nil {
		consultation.ID = uuid.New()
	}
	if consultation.CreatedAt.IsZero() {
		consultation.CreatedAt = time.Now().UTC()
	}

	_, err := r.q.ExecContext(ctx, query,
		consultation.ID,
		consultation.AppointmentID,
		consultation.PatientID,
		consultation.Vitals,
		consultation.Notes,
		consultation.Status,
		consultation.CreatedAt,
	)
	return translate(err, "consultation", "create consultation")
}

func (r *consultationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	query := `SELECT ` + consultationColumns + ` FROM consultations WHERE id = $1`
	var consultation model.Consultation
	if err := sqlx.GetContext(ctx, r.q, &consultation, query, id); err != nil {
		return nil, translate(err, "consultation", "get consultation")
	}
	return &consultation, nil
}

func (r *consultationRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Consultation, error) {
	query := `SELECT ` + consultationColumns + ` FROM consultations WHERE appointment_id = $1`
	var consultation model.Consultation
	if err := sqlx.GetContext(ctx, r.q, &consultation, query, appointmentID); err != nil {
		return nil, translate(err, "consultation", "get consultation")
	}
	return &consultation, nil
}

func (r *consultationRepository) Update(ctx context.Context, consultation *model.Consultation) error {
	query := `UPDATE consultations SET vitals = $1, notes = $2 WHERE id = $3`
	res, err := r.q.ExecContext(ctx, query, consultation.Vitals, consultation.Notes, consultation.ID)
	if err != nil {
		return translate(err, "consultation", "update consultation")
	}
	return requireRow(res, "consultation", "update consultation")
}

func (r *consultationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ConsultationStatus) error {
	query := `UPDATE consultations SET status = $1 WHERE id = $2`
	res, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return translate(err, "consultation", "update consultation")
	}
	return requireRow(res, "consultation", "update consultation")
}

func (r *consultationRepository) List(ctx context.Context, filters *model.ConsultationFilters) ([]*model.Consultation, error) {
	query := `SELECT ` + consultationColumns + ` FROM consultations WHERE 1=1`
	var args []interface{}
	argCount := 1

	if filters != nil {
		if filters.PatientID != uuid.Nil {
			query += fmt.Sprintf(" AND patient_id = $%d", argCount)
			args = append(args, filters.PatientID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
	}

	query += " ORDER BY created_at DESC, id DESC"

	consultations := []*model.Consultation{}
	if err := sqlx.SelectContext(ctx, r.q, &consultations, query, args...); err != nil {
		return nil, translate(err, "consultation", "list consultations")
	}
	return consultations, nil
}
