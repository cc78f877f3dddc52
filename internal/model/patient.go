package model

type PatientStatus string

const (
	PatientStatusActive   PatientStatus = "Active"
	PatientStatusInactive PatientStatus = "Inactive"
)

func (s PatientStatus) IsValid() bool {
	return s == PatientStatusActive || s == PatientStatusInactive
}

type Patient struct {
	Base
	Name   string        `db:"name" json:"name"`
	Gender string        `db:"gender" json:"gender"`
	Age    int           `db:"age" json:"age"`
	Phone  string        `db:"phone" json:"phone"`
	Status PatientStatus `db:"status" json:"status"`
}

// CreatePatientRequest is the submitted patient form. Age stays textual so
// that a malformed number is reported in field order with the others.
type CreatePatientRequest struct {
	Name   string `form:"name" validate:"required" msg:"Patient name is required"`
	Gender string `form:"gender" validate:"required" msg:"Gender is required"`
	Age    string `form:"age" validate:"age" msg:"Valid age is required (0-150)"`
	Phone  string `form:"phone" validate:"required" msg:"Phone number is required"`
}

type UpdatePatientStatusRequest struct {
	Status string `form:"status" validate:"oneof=Active Inactive" msg:"Invalid status"`
}

type PatientFilters struct {
	// SearchTerm matches name or phone, case-insensitively.
	SearchTerm string
	Status     PatientStatus
}
