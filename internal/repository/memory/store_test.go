package memory

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/frontdesk/internal/model"
	"github.com/jwalitptl/frontdesk/internal/repository"
	"github.com/jwalitptl/frontdesk/pkg/errors"
)

func seed(t *testing.T, s *Store) (*model.Patient, *model.Appointment) {
	t.Helper()
	ctx := context.Background()
	p := &model.Patient{Name: "Jane Doe", Gender: "F", Age: 34, Phone: "555-0100", Status: model.PatientStatusActive}
	require.NoError(t, s.Patients().Create(ctx, p))
	a := &model.Appointment{
		PatientID:   p.ID,
		DoctorName:  "Dr. Smith",
		ScheduledAt: time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC),
		Status:      model.AppointmentStatusScheduled,
	}
	require.NoError(t, s.Appointments().Create(ctx, a))
	return p, a
}

func TestWithTx_RollbackLeavesStateIntact(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p, a := seed(t, s)
	boom := stderrors.New("boom")

	err := s.WithTx(ctx, func(tx repository.Store) error {
		require.NoError(t, tx.Appointments().UpdateStatus(ctx, a.ID, model.AppointmentStatusCancelled))
		require.NoError(t, tx.Patients().UpdateStatus(ctx, p.ID, model.PatientStatusInactive))

		// visible inside the transaction
		got, err := tx.Appointments().Get(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentStatusCancelled, got.Status)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Appointments().Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, got.Status)
	gotP, err := s.Patients().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PatientStatusActive, gotP.Status)
}

func TestWithTx_CommitPublishesAllChanges(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p, a := seed(t, s)

	var consID uuid.UUID
	err := s.WithTx(ctx, func(tx repository.Store) error {
		c := &model.Consultation{AppointmentID: a.ID, PatientID: p.ID, Vitals: "BP 120/80", Status: model.ConsultationStatusDraft}
		if err := tx.Consultations().Create(ctx, c); err != nil {
			return err
		}
		consID = c.ID
		return tx.Appointments().UpdateStatus(ctx, a.ID, model.AppointmentStatusCompleted)
	})
	require.NoError(t, err)

	c, err := s.Consultations().Get(ctx, consID)
	require.NoError(t, err)
	assert.Equal(t, "BP 120/80", c.Vitals)
	got, err := s.Appointments().Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, got.Status)
}

func TestWithTx_PanicRollsBack(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, a := seed(t, s)

	assert.Panics(t, func() {
		_ = s.WithTx(ctx, func(tx repository.Store) error {
			_ = tx.Appointments().UpdateStatus(ctx, a.ID, model.AppointmentStatusCancelled)
			panic("boom")
		})
	})

	got, err := s.Appointments().Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, got.Status)

	// the store is still usable
	require.NoError(t, s.WithTx(ctx, func(repository.Store) error { return nil }))
}

func TestConsultations_OnePerAppointment(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p, a := seed(t, s)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Consultations().Create(ctx, &model.Consultation{
				AppointmentID: a.ID, PatientID: p.ID, Vitals: "v", Status: model.ConsultationStatusDraft,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, errors.KindValidation))
	}
	assert.Equal(t, 1, succeeded)

	list, err := s.Consultations().List(ctx, &model.ConsultationFilters{PatientID: p.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestConsultations_PatientMustMatchAppointment(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, a := seed(t, s)

	err := s.Consultations().Create(ctx, &model.Consultation{AppointmentID: a.ID, PatientID: uuid.New(), Vitals: "v"})
	assert.True(t, errors.Is(err, errors.KindPersistence))
}

func TestPatients_ListSearchCaseInsensitive(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for _, p := range []*model.Patient{
		{Name: "Jane Doe", Phone: "555-0100", Status: model.PatientStatusActive},
		{Name: "John Roe", Phone: "555-0199", Status: model.PatientStatusInactive},
		{Name: "ANNA Kim", Phone: "777-1234", Status: model.PatientStatusActive},
	} {
		require.NoError(t, s.Patients().Create(ctx, p))
	}

	got, err := s.Patients().List(ctx, &model.PatientFilters{SearchTerm: "anna"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ANNA Kim", got[0].Name)

	got, err = s.Patients().List(ctx, &model.PatientFilters{SearchTerm: "0199"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "John Roe", got[0].Name)

	got, err = s.Patients().List(ctx, &model.PatientFilters{Status: model.PatientStatusActive})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.Patients().List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Jane Doe", got[0].Name)
}

func TestAppointments_ListRangeAndJoin(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p, a := seed(t, s)
	earlier := &model.Appointment{PatientID: p.ID, DoctorName: "Dr. Who", ScheduledAt: a.ScheduledAt.Add(-2 * time.Hour), Status: model.AppointmentStatusScheduled}
	require.NoError(t, s.Appointments().Create(ctx, earlier))
	nextDay := &model.Appointment{PatientID: p.ID, DoctorName: "Dr. Smith", ScheduledAt: a.ScheduledAt.AddDate(0, 0, 1), Status: model.AppointmentStatusScheduled}
	require.NoError(t, s.Appointments().Create(ctx, nextDay))

	day := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	got, err := s.Appointments().List(ctx, &model.AppointmentFilters{From: day, To: day.AddDate(0, 0, 1)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, earlier.ID, got[0].ID)
	assert.Equal(t, a.ID, got[1].ID)
	assert.Equal(t, "Jane Doe", got[0].PatientName)
}

func TestAppointments_CreateRequiresPatient(t *testing.T) {
	s := NewStore()
	err := s.Appointments().Create(context.Background(), &model.Appointment{PatientID: uuid.New(), DoctorName: "x"})
	assert.True(t, errors.Is(err, errors.KindNotFound))
}

func TestGet_ReturnsCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p, _ := seed(t, s)

	got, err := s.Patients().Get(ctx, p.ID)
	require.NoError(t, err)
	got.Status = model.PatientStatusInactive

	again, err := s.Patients().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PatientStatusActive, again.Status)
}

func TestConsultations_ListNewestFirst(t *testing.T) {
	base := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	s := NewStore(WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))
	ctx := context.Background()
	p, a1 := seed(t, s)
	a2 := &model.Appointment{PatientID: p.ID, DoctorName: "Dr. Smith", ScheduledAt: a1.ScheduledAt.Add(time.Hour), Status: model.AppointmentStatusScheduled}
	require.NoError(t, s.Appointments().Create(ctx, a2))

	first := &model.Consultation{AppointmentID: a1.ID, PatientID: p.ID, Vitals: "v1", Status: model.ConsultationStatusCompleted}
	second := &model.Consultation{AppointmentID: a2.ID, PatientID: p.ID, Vitals: "v2", Status: model.ConsultationStatusCompleted}
	require.NoError(t, s.Consultations().Create(ctx, first))
	require.NoError(t, s.Consultations().Create(ctx, second))

	got, err := s.Consultations().List(ctx, &model.ConsultationFilters{PatientID: p.ID, Status: model.ConsultationStatusCompleted})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
}
