// Package memory is an in-process repository.Store. Transactions work on a
// copy of the data that replaces the committed state only when fn succeeds.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/frontdesk/internal/model"
	"github.com/jwalitptl/frontdesk/internal/repository"
	"github.com/jwalitptl/frontdesk/pkg/errors"
	"github.com/jwalitptl/frontdesk/pkg/metrics"
)

type state struct {
	patients      map[uuid.UUID]model.Patient
	appointments  map[uuid.UUID]model.Appointment
	consultations map[uuid.UUID]model.Consultation

	// insertion order, which is the order List reports before sorting
	patientOrder      []uuid.UUID
	appointmentOrder  []uuid.UUID
	consultationOrder []uuid.UUID
}

func newState() *state {
	return &state{
		patients:      make(map[uuid.UUID]model.Patient),
		appointments:  make(map[uuid.UUID]model.Appointment),
		consultations: make(map[uuid.UUID]model.Consultation),
	}
}

func (s *state) clone() *state {
	c := &state{
		patients:          make(map[uuid.UUID]model.Patient, len(s.patients)),
		appointments:      make(map[uuid.UUID]model.Appointment, len(s.appointments)),
		consultations:     make(map[uuid.UUID]model.Consultation, len(s.consultations)),
		patientOrder:      append([]uuid.UUID(nil), s.patientOrder...),
		appointmentOrder:  append([]uuid.UUID(nil), s.appointmentOrder...),
		consultationOrder: append([]uuid.UUID(nil), s.consultationOrder...),
	}
	for k, v := range s.patients {
		c.patients[k] = v
	}
	for k, v := range s.appointments {
		c.appointments[k] = v
	}
	for k, v := range s.consultations {
		c.consultations[k] = v
	}
	return c
}

// Store is safe for concurrent use. Transactions are serialized.
type Store struct {
	mu      *sync.RWMutex
	txMu    *sync.Mutex
	data    *state
	inTx    bool
	now     func() time.Time
	metrics *metrics.Metrics
}

type Option func(*Store)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithClock sets the clock used for created timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		mu:   &sync.RWMutex{},
		txMu: &sync.Mutex{},
		data: newState(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Patients() repository.PatientRepository {
	return &patientRepository{s: s}
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{s: s}
}

func (s *Store) Consultations() repository.ConsultationRepository {
	return &consultationRepository{s: s}
}

func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return errors.Persistence("begin transaction", err)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	start := time.Now()
	s.mu.RLock()
	work := s.data.clone()
	s.mu.RUnlock()

	tx := &Store{
		mu:      &sync.RWMutex{},
		txMu:    s.txMu,
		data:    work,
		inTx:    true,
		now:     s.now,
		metrics: s.metrics,
	}

	defer func() {
		if p := recover(); p != nil {
			s.metrics.ObserveTx(start, fmt.Errorf("panic: %v", p))
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		s.metrics.ObserveTx(start, err)
		return err
	}
	if err := ctx.Err(); err != nil {
		s.metrics.ObserveTx(start, err)
		return errors.Persistence("commit transaction", err)
	}

	s.mu.Lock()
	s.data = work
	s.mu.Unlock()
	s.metrics.ObserveTx(start, nil)
	return nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) read(fn func(*state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

// write serializes with running transactions unless s is itself one.
func (s *Store) write(fn func(*state) error) error {
	if !s.inTx {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

type patientRepository struct{ s *Store }

func (r *patientRepository) Create(_ context.Context, patient *model.Patient) error {
	if patient.ID == uuid.Nil {
		patient.ID = uuid.New()
	}
	if patient.CreatedAt.IsZero() {
		patient.CreatedAt = r.s.now().UTC()
	}
	return r.s.write(func(st *state) error {
		if _, ok := st.patients[patient.ID]; ok {
			return errors.Persistence("create patient", fmt.Errorf("duplicate id %s", patient.ID))
		}
		st.patients[patient.ID] = *patient
		st.patientOrder = append(st.patientOrder, patient.ID)
		return nil
	})
}

func (r *patientRepository) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	var (
		p  model.Patient
		ok bool
	)
	r.s.read(func(st *state) { p, ok = st.patients[id] })
	if !ok {
		return nil, errors.NotFound("patient", nil)
	}
	return &p, nil
}

func (r *patientRepository) UpdateStatus(_ context.Context, id uuid.UUID, status model.PatientStatus) error {
	return r.s.write(func(st *state) error {
		p, ok := st.patients[id]
		if !ok {
			return errors.NotFound("patient", nil)
		}
		p.Status = status
		st.patients[id] = p
		return nil
	})
}

func (r *patientRepository) List(_ context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	patients := []*model.Patient{}
	r.s.read(func(st *state) {
		for _, id := range st.patientOrder {
			p := st.patients[id]
			if filters != nil {
				if filters.SearchTerm != "" && !containsFold(p.Name, filters.SearchTerm) && !containsFold(p.Phone, filters.SearchTerm) {
					continue
				}
				if filters.Status != "" && p.Status != filters.Status {
					continue
				}
			}
			patients = append(patients, &p)
		}
	})
	return patients, nil
}

type appointmentRepository struct{ s *Store }

func (r *appointmentRepository) Create(_ context.Context, appointment *model.Appointment) error {
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = r.s.now().UTC()
	}
	return r.s.write(func(st *state) error {
		if _, ok := st.patients[appointment.PatientID]; !ok {
			return errors.NotFound("patient", nil)
		}
		a := *appointment
		a.PatientName = ""
		st.appointments[a.ID] = a
		st.appointmentOrder = append(st.appointmentOrder, a.ID)
		return nil
	})
}

func (r *appointmentRepository) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	var (
		a  model.Appointment
		ok bool
	)
	r.s.read(func(st *state) {
		a, ok = st.appointments[id]
		a.PatientName = st.patients[a.PatientID].Name
	})
	if !ok {
		return nil, errors.NotFound("appointment", nil)
	}
	return &a, nil
}

// GetForUpdate needs no extra locking: transactions already run one at a time.
func (r *appointmentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return r.Get(ctx, id)
}

func (r *appointmentRepository) UpdateStatus(_ context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	return r.s.write(func(st *state) error {
		a, ok := st.appointments[id]
		if !ok {
			return errors.NotFound("appointment", nil)
		}
		a.Status = status
		st.appointments[id] = a
		return nil
	})
}

func (r *appointmentRepository) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments := []*model.Appointment{}
	r.s.read(func(st *state) {
		for _, id := range st.appointmentOrder {
			a := st.appointments[id]
			if filters != nil {
				if filters.PatientID != uuid.Nil && a.PatientID != filters.PatientID {
					continue
				}
				if filters.Status != "" && a.Status != filters.Status {
					continue
				}
				if !filters.From.IsZero() && a.ScheduledAt.Before(filters.From) {
					continue
				}
				if !filters.To.IsZero() && !a.ScheduledAt.Before(filters.To) {
					continue
				}
			}
			a.PatientName = st.patients[a.PatientID].Name
			appointments = append(appointments, &a)
		}
	})
	sort.SliceStable(appointments, func(i, j int) bool {
		return appointments[i].ScheduledAt.Before(appointments[j].ScheduledAt)
	})
	return appointments, nil
}

type consultationRepository struct{ s *Store }

func (r *consultationRepository) Create(_ context.Context, consultation *model.Consultation) error {
	if consultation.ID == uuid.Nil {
		consultation.ID = uuid.New()
	}
	if consultation.CreatedAt.IsZero() {
		consultation.CreatedAt = r.s.now().UTC()
	}
	return r.s.write(func(st *state) error {
		a, ok := st.appointments[consultation.AppointmentID]
		if !ok {
			return errors.NotFound("appointment", nil)
		}
		if a.PatientID != consultation.PatientID {
			return errors.Persistence("create consultation", fmt.Errorf("patient %s does not own appointment %s", consultation.PatientID, a.ID))
		}
		for _, c := range st.consultations {
			if c.AppointmentID == consultation.AppointmentID {
				return errors.Validation("A consultation already exists for this appointment")
			}
		}
		st.consultations[consultation.ID] = *consultation
		st.consultationOrder = append(st.consultationOrder, consultation.ID)
		return nil
	})
}

func (r *consultationRepository) Get(_ context.Context, id uuid.UUID) (*model.Consultation, error) {
	var (
		c  model.Consultation
		ok bool
	)
	r.s.read(func(st *state) { c, ok = st.consultations[id] })
	if !ok {
		return nil, errors.NotFound("consultation", nil)
	}
	return &c, nil
}

func (r *consultationRepository) GetByAppointment(_ context.Context, appointmentID uuid.UUID) (*model.Consultation, error) {
	var (
		c     model.Consultation
		found bool
	)
	r.s.read(func(st *state) {
		for _, id := range st.consultationOrder {
			if st.consultations[id].AppointmentID == appointmentID {
				c, found = st.consultations[id], true
				return
			}
		}
	})
	if !found {
		return nil, errors.NotFound("consultation", nil)
	}
	return &c, nil
}

func (r *consultationRepository) Update(_ context.Context, consultation *model.Consultation) error {
	return r.s.write(func(st *state) error {
		c, ok := st.consultations[consultation.ID]
		if !ok {
			return errors.NotFound("consultation", nil)
		}
		c.Vitals = consultation.Vitals
		c.Notes = consultation.Notes
		st.consultations[c.ID] = c
		return nil
	})
}

func (r *consultationRepository) UpdateStatus(_ context.Context, id uuid.UUID, status model.ConsultationStatus) error {
	return r.s.write(func(st *state) error {
		c, ok := st.consultations[id]
		if !ok {
			return errors.NotFound("consultation", nil)
		}
		c.Status = status
		st.consultations[id] = c
		return nil
	})
}

func (r *consultationRepository) List(_ context.Context, filters *model.ConsultationFilters) ([]*model.Consultation, error) {
	consultations := []*model.Consultation{}
	r.s.read(func(st *state) {
		for _, id := range st.consultationOrder {
			c := st.consultations[id]
			if filters != nil {
				if filters.PatientID != uuid.Nil && c.PatientID != filters.PatientID {
					continue
				}
				if filters.Status != "" && c.Status != filters.Status {
					continue
				}
			}
			consultations = append(consultations, &c)
		}
	})
	// newest first; insertion order breaks ties
	sort.SliceStable(consultations, func(i, j int) bool {
		return consultations[i].CreatedAt.After(consultations[j].CreatedAt)
	})
	return consultations, nil
}
