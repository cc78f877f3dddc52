package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/frontdesk/internal/model"
)

const patientColumns = `id, name, gender, age, phone, status, created_at`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (id, name, gender, age, phone, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if patient.ID == uuid.Nil {
		patient.ID = uuid.New()
	}
	if patient.CreatedAt.IsZero() {
		patient.CreatedAt = time.Now().UTC()
	}

	_, err := r.q.ExecContext(ctx, query,
		patient.ID,
		patient.Name,
		patient.Gender,
		patient.Age,
		patient.Phone,
		patient.Status,
		patient.CreatedAt,
	)
	return translate(err, "patient", "create patient")
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	var patient model.Patient
	if err := sqlx.GetContext(ctx, r.q, &patient, query, id); err != nil {
		return nil, translate(err, "patient", "get patient")
	}
	return &patient, nil
}

func (r *patientRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PatientStatus) error {
	query := `UPDATE patients SET status = $1 WHERE id = $2`
	res, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return translate(err, "patient", "update patient")
	}
	return requireRow(res, "patient", "update patient")
}

func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE 1=1`
	var args []interface{}
	argCount := 1

	if filters != nil {
		if filters.SearchTerm != "" {
			query += fmt.Sprintf(` AND (name ILIKE $%d ESCAPE '\' OR phone ILIKE $%d ESCAPE '\')`, argCount, argCount)
			args = append(args, "%"+escapeLike(filters.SearchTerm)+"%")
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
	}

	query += " ORDER BY created_at ASC, id ASC"

	patients := []*model.Patient{}
	if err := sqlx.SelectContext(ctx, r.q, &patients, query, args...); err != nil {
		return nil, translate(err, "patient", "list patients")
	}
	return patients, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
