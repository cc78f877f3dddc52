package model

import (
	"github.com/google/uuid"
)

// State transitions:
//
//	(none) → Draft       on create, while the appointment is Scheduled
//	Draft  → Draft       on edit
//	Draft  → Completed   terminal; completes the appointment in the same transaction
type ConsultationStatus string

const (
	ConsultationStatusDraft     ConsultationStatus = "Draft"
	ConsultationStatusCompleted ConsultationStatus = "Completed"
)

type Consultation struct {
	Base
	AppointmentID uuid.UUID          `db:"appointment_id" json:"appointment_id"`
	PatientID     uuid.UUID          `db:"patient_id" json:"patient_id"`
	Vitals        string             `db:"vitals" json:"vitals"`
	Notes         string             `db:"notes" json:"notes"`
	Status        ConsultationStatus `db:"status" json:"status"`
}

type ConsultationRequest struct {
	Vitals string `form:"vitals" validate:"required" msg:"Vitals information is required"`
	Notes  string `form:"notes"`
}

type ConsultationFilters struct {
	PatientID uuid.UUID
	Status    ConsultationStatus
}

// ConsultationDetail joins a consultation with its appointment and patient.
type ConsultationDetail struct {
	Consultation *Consultation
	Appointment  *Appointment
	Patient      *Patient
}
