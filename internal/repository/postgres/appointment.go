package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/frontdesk/internal/model"
)

const appointmentSelect = `
	SELECT a.id, a.patient_id, a.doctor_name, a.appointment_datetime,
		   a.status, a.created_at, p.name AS patient_name
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, doctor_name, appointment_datetime, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = time.Now().UTC()
	}

	_, err := r.q.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.DoctorName,
		appointment.ScheduledAt,
		appointment.Status,
		appointment.CreatedAt,
	)
	return translate(err, "appointment", "create appointment")
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return r.get(ctx, appointmentSelect+` WHERE a.id = $1`, id)
}

func (r *appointmentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return r.get(ctx, appointmentSelect+` WHERE a.id = $1 FOR UPDATE OF a`, id)
}

func (r *appointmentRepository) get(ctx context.Context, query string, id uuid.UUID) (*model.Appointment, error) {
	var appointment model.Appointment
	if err := sqlx.GetContext(ctx, r.q, &appointment, query, id); err != nil {
		return nil, translate(err, "appointment", "get appointment")
	}
	return &appointment, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	query := `UPDATE appointments SET status = $1 WHERE id = $2`
	res, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return translate(err, "appointment", "update appointment")
	}
	return requireRow(res, "appointment", "update appointment")
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := appointmentSelect + ` WHERE 1=1`
	var args []interface{}
	argCount := 1

	if filters != nil {
		if filters.PatientID != uuid.Nil {
			query += fmt.Sprintf(" AND a.patient_id = $%d", argCount)
			args = append(args, filters.PatientID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND a.status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if !filters.From.IsZero() {
			query += fmt.Sprintf(" AND a.appointment_datetime >= $%d", argCount)
			args = append(args, filters.From)
			argCount++
		}
		if !filters.To.IsZero() {
			query += fmt.Sprintf(" AND a.appointment_datetime < $%d", argCount)
			args = append(args, filters.To)
			argCount++
		}
	}

	query += " ORDER BY a.appointment_datetime ASC, a.id ASC"

	appointments := []*model.Appointment{}
	if err := sqlx.SelectContext(ctx, r.q, &appointments, query, args...); err != nil {
		return nil, translate(err, "appointment", "list appointments")
	}
	return appointments, nil
}
