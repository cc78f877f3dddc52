package model

import (
	"time"

	"github.com/google/uuid"
)

// State transitions:
//
//	Scheduled → Cancelled  (manual; refused once Completed)
//	Scheduled → Completed  (only by completing the appointment's consultation)
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "Scheduled"
	AppointmentStatusCompleted AppointmentStatus = "Completed"
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
)

type Appointment struct {
	Base
	PatientID   uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorName  string            `db:"doctor_name" json:"doctor_name"`
	ScheduledAt time.Time         `db:"appointment_datetime" json:"appointment_datetime"`
	Status      AppointmentStatus `db:"status" json:"status"`

	// PatientName is read through a join; it is never written.
	PatientName string `db:"patient_name" json:"patient_name,omitempty"`
}

type CreateAppointmentRequest struct {
	PatientID  string `form:"patient_id" validate:"required,uuid" msg:"Valid patient selection is required"`
	DoctorName string `form:"doctor_name" validate:"required" msg:"Doctor name is required"`
	DateTime   string `form:"appointment_datetime" validate:"required" msg:"Appointment date and time is required"`
}

type AppointmentFilters struct {
	PatientID uuid.UUID
	Status    AppointmentStatus
	// From is inclusive, To exclusive; zero values leave the range open.
	From time.Time
	To   time.Time
}

// AppointmentDetail is an appointment with its patient and, if one exists,
// its consultation.
type AppointmentDetail struct {
	Appointment  *Appointment
	Patient      *Patient
	Consultation *Consultation
}
