package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/frontdesk/internal/model"
	"github.com/jwalitptl/frontdesk/internal/repository/memory"
	"github.com/jwalitptl/frontdesk/pkg/errors"
)

var fixedNow = time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	store   *memory.Store
	patient *model.Patient
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := memory.NewStore()
	p := &model.Patient{Name: "Jane Doe", Gender: "F", Age: 34, Phone: "555-0100", Status: model.PatientStatusActive}
	require.NoError(t, store.Patients().Create(context.Background(), p))

	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC),
	}, opts...)
	return &fixture{svc: NewService(store, opts...), store: store, patient: p}
}

func (f *fixture) request(dateTime string) *model.CreateAppointmentRequest {
	return &model.CreateAppointmentRequest{
		PatientID:  f.patient.ID.String(),
		DoctorName: "Dr. Smith",
		DateTime:   dateTime,
	}
}

func (f *fixture) count(t *testing.T) int {
	t.Helper()
	all, err := f.store.Appointments().List(context.Background(), nil)
	require.NoError(t, err)
	return len(all)
}

func TestCreateAppointment(t *testing.T) {
	f := newFixture(t)

	a, err := f.svc.CreateAppointment(context.Background(), f.request("2030-01-02T10:00"))
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, a.Status)
	assert.Equal(t, f.patient.ID, a.PatientID)
	assert.Equal(t, "Jane Doe", a.PatientName)
	assert.True(t, time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC).Equal(a.ScheduledAt))
	assert.Equal(t, 1, f.count(t))
}

func TestCreateAppointment_InactivePatient(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Patients().UpdateStatus(context.Background(), f.patient.ID, model.PatientStatusInactive))

	_, err := f.svc.CreateAppointment(context.Background(), f.request("2030-01-02T10:00"))
	assert.True(t, errors.Is(err, errors.KindValidation))
	assert.Equal(t, "Cannot create appointment for inactive patient", errors.Message(err))
	assert.Zero(t, f.count(t))
}

func TestCreateAppointment_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fixture, *model.CreateAppointmentRequest)
		kind   errors.Kind
		msg    string
	}{
		{"missing patient", func(_ *fixture, r *model.CreateAppointmentRequest) { r.PatientID = "" }, errors.KindValidation, "Valid patient selection is required"},
		{"malformed patient", func(_ *fixture, r *model.CreateAppointmentRequest) { r.PatientID = "42" }, errors.KindValidation, "Valid patient selection is required"},
		{"unknown patient", func(_ *fixture, r *model.CreateAppointmentRequest) { r.PatientID = uuid.NewString() }, errors.KindNotFound, "Patient not found"},
		{"unknown patient before doctor", func(_ *fixture, r *model.CreateAppointmentRequest) {
			r.PatientID = uuid.NewString()
			r.DoctorName = ""
		}, errors.KindNotFound, "Patient not found"},
		{"missing doctor", func(_ *fixture, r *model.CreateAppointmentRequest) { r.DoctorName = "  " }, errors.KindValidation, "Doctor name is required"},
		{"missing date", func(_ *fixture, r *model.CreateAppointmentRequest) { r.DateTime = "" }, errors.KindValidation, "Appointment date and time is required"},
		{"bad format", func(_ *fixture, r *model.CreateAppointmentRequest) { r.DateTime = "tomorrow at ten" }, errors.KindValidation, "Invalid date/time format"},
		{"past", func(_ *fixture, r *model.CreateAppointmentRequest) { r.DateTime = "2030-01-01T08:59" }, errors.KindValidation, "Cannot create appointment in the past"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := f.request("2030-01-02T10:00")
			tt.mutate(f, req)

			_, err := f.svc.CreateAppointment(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, errors.KindOf(err))
			assert.Equal(t, tt.msg, errors.Message(err))
			assert.Zero(t, f.count(t))
		})
	}
}

func TestCreateAppointment_NowIsNotPast(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateAppointment(context.Background(), f.request("2030-01-01T09:00"))
	assert.NoError(t, err)
}

func TestCreateAppointment_Layouts(t *testing.T) {
	want := time.Date(2030, 1, 2, 10, 30, 0, 0, time.UTC)
	for _, in := range []string{
		"2030-01-02T10:30",
		"2030-01-02T10:30:00",
		"2030-01-02 10:30",
		"2030-01-02 10:30:00",
		"2030-01-02T10:30:00.000",
		"2030-01-02T10:30:00Z",
		"2030-01-02T12:30:00+02:00",
	} {
		f := newFixture(t)
		a, err := f.svc.CreateAppointment(context.Background(), f.request(in))
		require.NoError(t, err, in)
		assert.True(t, want.Equal(a.ScheduledAt), in)
	}

	f := newFixture(t)
	a, err := f.svc.CreateAppointment(context.Background(), f.request("2030-01-02"))
	require.NoError(t, err)
	assert.True(t, time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC).Equal(a.ScheduledAt))
}

func TestCreateAppointment_ReadsLocalTimeInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	f := newFixture(t, WithLocation(loc))

	a, err := f.svc.CreateAppointment(context.Background(), f.request("2030-01-02T10:00"))
	require.NoError(t, err)
	assert.True(t, time.Date(2030, 1, 2, 5, 0, 0, 0, time.UTC).Equal(a.ScheduledAt))
}

func TestListTodayAppointments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	insert := func(at time.Time, status model.AppointmentStatus) *model.Appointment {
		a := &model.Appointment{PatientID: f.patient.ID, DoctorName: "Dr. Smith", ScheduledAt: at, Status: status}
		require.NoError(t, f.store.Appointments().Create(ctx, a))
		return a
	}
	late := insert(time.Date(2030, 1, 1, 23, 30, 0, 0, time.UTC), model.AppointmentStatusScheduled)
	insert(time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC), model.AppointmentStatusScheduled)
	insert(time.Date(2029, 12, 31, 23, 59, 0, 0, time.UTC), model.AppointmentStatusScheduled)
	early := insert(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), model.AppointmentStatusCancelled)

	got, err := f.svc.ListTodayAppointments(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, early.ID, got[0].ID)
	assert.Equal(t, late.ID, got[1].ID)
	assert.Equal(t, "Jane Doe", got[0].PatientName)
}

func TestToday_UsesLocation(t *testing.T) {
	// 20:00 UTC on Jan 1 is already Jan 2 at UTC+5
	now := time.Date(2030, 1, 1, 20, 0, 0, 0, time.UTC)
	loc := time.FixedZone("UTC+5", 5*3600)
	svc := NewService(memory.NewStore(), WithClock(func() time.Time { return now }), WithLocation(loc))

	today := svc.Today()
	assert.Equal(t, 2, today.Day())
	assert.True(t, time.Date(2030, 1, 1, 19, 0, 0, 0, time.UTC).Equal(today))
}

func TestListBookablePatients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inactive := &model.Patient{Name: "Old Timer", Gender: "M", Age: 90, Phone: "1", Status: model.PatientStatusInactive}
	require.NoError(t, f.store.Patients().Create(ctx, inactive))

	got, err := f.svc.ListBookablePatients(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, f.patient.ID, got[0].ID)
}

func TestGetAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.CreateAppointment(ctx, f.request("2030-01-02T10:00"))
	require.NoError(t, err)

	detail, err := f.svc.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, detail.Appointment.ID)
	assert.Equal(t, f.patient.ID, detail.Patient.ID)
	assert.Nil(t, detail.Consultation)

	c := &model.Consultation{AppointmentID: a.ID, PatientID: f.patient.ID, Vitals: "BP 120/80", Status: model.ConsultationStatusDraft}
	require.NoError(t, f.store.Consultations().Create(ctx, c))

	detail, err = f.svc.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Consultation)
	assert.Equal(t, c.ID, detail.Consultation.ID)

	_, err = f.svc.GetAppointment(ctx, uuid.New())
	assert.True(t, errors.Is(err, errors.KindNotFound))
}

func TestCancelAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.CreateAppointment(ctx, f.request("2030-01-02T10:00"))
	require.NoError(t, err)

	cancelled, err := f.svc.CancelAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)

	// re-cancelling is accepted
	again, err := f.svc.CancelAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, again.Status)

	_, err = f.svc.CancelAppointment(ctx, uuid.New())
	assert.True(t, errors.Is(err, errors.KindNotFound))
}

func TestCancelAppointment_CompletedIsRefused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.CreateAppointment(ctx, f.request("2030-01-02T10:00"))
	require.NoError(t, err)
	require.NoError(t, f.store.Appointments().UpdateStatus(ctx, a.ID, model.AppointmentStatusCompleted))

	_, err = f.svc.CancelAppointment(ctx, a.ID)
	assert.True(t, errors.Is(err, errors.KindValidation))
	assert.Equal(t, "Cannot cancel a completed appointment", errors.Message(err))

	got, err := f.store.Appointments().Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, got.Status)
}
