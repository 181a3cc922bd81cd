package sispendik

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"sekolah-backend/internal/models"
)

// MemStore is an in-memory Store used by tests and local demos.
type MemStore struct {
	mu         sync.RWMutex
	seq        uint
	wasteTypes map[uint]models.WasteType
	teachers   map[uint]models.Teacher
	classes    map[uint]models.ClassRoom
	deposits   map[uint]models.Deposit
	now        func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		wasteTypes: make(map[uint]models.WasteType),
		teachers:   make(map[uint]models.Teacher),
		classes:    make(map[uint]models.ClassRoom),
		deposits:   make(map[uint]models.Deposit),
		now:        time.Now,
	}
}

func (s *MemStore) nextID() uint {
	s.seq++
	return s.seq
}

// Waste types

func (s *MemStore) CreateWasteType(_ context.Context, wt *models.WasteType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wasteTypeNameTaken(wt.Name, 0) {
		return ErrDuplicate
	}
	wt.ID = s.nextID()
	wt.CreatedAt, wt.UpdatedAt = s.now(), s.now()
	s.wasteTypes[wt.ID] = *wt
	return nil
}

func (s *MemStore) wasteTypeNameTaken(name string, exclude uint) bool {
	for _, wt := range s.wasteTypes {
		if wt.ID != exclude && strings.EqualFold(wt.Name, name) {
			return true
		}
	}
	return false
}

func (s *MemStore) ListWasteTypes(context.Context) ([]models.WasteType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.WasteType, 0, len(s.wasteTypes))
	for _, wt := range s.wasteTypes {
		out = append(out, wt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) GetWasteType(_ context.Context, id uint) (models.WasteType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wt, ok := s.wasteTypes[id]
	if !ok {
		return models.WasteType{}, ErrNotFound
	}
	return wt, nil
}

func (s *MemStore) UpdateWasteType(_ context.Context, wt *models.WasteType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.wasteTypes[wt.ID]
	if !ok {
		return ErrNotFound
	}
	if s.wasteTypeNameTaken(wt.Name, wt.ID) {
		return ErrDuplicate
	}
	cur.Name, cur.PricePerKg, cur.UpdatedAt = wt.Name, wt.PricePerKg, s.now()
	s.wasteTypes[wt.ID] = cur
	*wt = cur
	return nil
}

func (s *MemStore) DeleteWasteType(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wasteTypes[id]; !ok {
		return ErrNotFound
	}
	for _, d := range s.deposits {
		if d.WasteTypeID == id {
			return ErrInUse
		}
	}
	delete(s.wasteTypes, id)
	return nil
}

// Teachers

func (s *MemStore) teacherNameTaken(name string, exclude uint) bool {
	for _, t := range s.teachers {
		if t.ID != exclude && strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}

func (s *MemStore) CreateTeacher(_ context.Context, t *models.Teacher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.teacherNameTaken(t.Name, 0) {
		return ErrDuplicate
	}
	t.ID = s.nextID()
	t.CreatedAt, t.UpdatedAt = s.now(), s.now()
	s.teachers[t.ID] = *t
	return nil
}

func (s *MemStore) ListTeachers(context.Context) ([]models.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Teacher, 0, len(s.teachers))
	for _, t := range s.teachers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) GetTeacher(_ context.Context, id uint) (models.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teachers[id]
	if !ok {
		return models.Teacher{}, ErrNotFound
	}
	return t, nil
}

func (s *MemStore) UpdateTeacher(_ context.Context, t *models.Teacher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.teachers[t.ID]
	if !ok {
		return ErrNotFound
	}
	if s.teacherNameTaken(t.Name, t.ID) {
		return ErrDuplicate
	}
	cur.Name, cur.UpdatedAt = t.Name, s.now()
	s.teachers[t.ID] = cur
	*t = cur
	return nil
}

func (s *MemStore) DeleteTeacher(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teachers[id]; !ok {
		return ErrNotFound
	}
	for _, d := range s.deposits {
		if d.TeacherID != nil && *d.TeacherID == id {
			return ErrInUse
		}
	}
	delete(s.teachers, id)
	return nil
}

// Classes

func (s *MemStore) ListClasses(context.Context) ([]models.ClassRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ClassRoom, 0, len(s.classes))
	for _, c := range s.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Grade != out[j].Grade {
			return out[i].Grade < out[j].Grade
		}
		return out[i].Section < out[j].Section
	})
	return out, nil
}

func (s *MemStore) GetClass(_ context.Context, id uint) (models.ClassRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.classes[id]
	if !ok {
		return models.ClassRoom{}, ErrNotFound
	}
	return c, nil
}

func (s *MemStore) SeedClasses(_ context.Context, sections []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := make(map[string]bool, len(s.classes))
	for _, c := range s.classes {
		existing[c.Label()] = true
	}
	var added int
	for _, g := range classGrades() {
		for _, sec := range sections {
			c := models.ClassRoom{Grade: g, Section: sec}
			if existing[c.Label()] {
				continue
			}
			c.ID = s.nextID()
			c.CreatedAt = s.now()
			s.classes[c.ID] = c
			existing[c.Label()] = true
			added++
		}
	}
	return added, nil
}

// Deposits

func (s *MemStore) CreateDeposit(_ context.Context, d *models.Deposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := d.Validate(); err != nil {
		return errors.WithStack(err)
	}
	if err := s.checkRefs(*d); err != nil {
		return err
	}
	d.ID = s.nextID()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now()
	}
	d.UpdatedAt = s.now()
	stored := *d
	stored.WasteType, stored.Class, stored.Teacher = models.WasteType{}, nil, nil
	s.deposits[d.ID] = stored
	return nil
}

func (s *MemStore) checkRefs(d models.Deposit) error {
	if _, ok := s.wasteTypes[d.WasteTypeID]; !ok {
		return ErrNotFound
	}
	if d.ClassID != nil {
		if _, ok := s.classes[*d.ClassID]; !ok {
			return ErrNotFound
		}
	}
	if d.TeacherID != nil {
		if _, ok := s.teachers[*d.TeacherID]; !ok {
			return ErrNotFound
		}
	}
	return nil
}

func (s *MemStore) hydrate(d models.Deposit) models.Deposit {
	d.WasteType = s.wasteTypes[d.WasteTypeID]
	if d.ClassID != nil {
		c := s.classes[*d.ClassID]
		d.Class = &c
	}
	if d.TeacherID != nil {
		t := s.teachers[*d.TeacherID]
		d.Teacher = &t
	}
	return d
}

func (s *MemStore) GetDeposit(_ context.Context, id uint) (models.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deposits[id]
	if !ok {
		return models.Deposit{}, ErrNotFound
	}
	return s.hydrate(d), nil
}

func matches(d models.Deposit, f DepositFilter) bool {
	typ, id := d.Owner()
	if f.OwnerType != "" && typ != f.OwnerType {
		return false
	}
	if f.OwnerID > 0 && id != f.OwnerID {
		return false
	}
	if f.WasteTypeID > 0 && d.WasteTypeID != f.WasteTypeID {
		return false
	}
	if !f.From.IsZero() && d.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !d.CreatedAt.Before(f.To) {
		return false
	}
	return true
}

func (s *MemStore) ListDeposits(_ context.Context, f DepositFilter) ([]models.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Deposit, 0)
	for _, d := range s.deposits {
		if matches(d, f) {
			out = append(out, s.hydrate(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemStore) UpdateDeposit(_ context.Context, d *models.Deposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.deposits[d.ID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := s.wasteTypes[d.WasteTypeID]; !ok {
		return ErrNotFound
	}
	cur.WasteTypeID, cur.WeightKg, cur.CreatedAt, cur.UpdatedAt = d.WasteTypeID, d.WeightKg, d.CreatedAt, s.now()
	s.deposits[d.ID] = cur
	return nil
}

func (s *MemStore) DeleteDeposit(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deposits[id]; !ok {
		return ErrNotFound
	}
	delete(s.deposits, id)
	return nil
}

func (s *MemStore) ResetPeriod(_ context.Context, ownerType models.OwnerType, ownerID uint, from, to time.Time) ([]models.Deposit, error) {
	if _, err := ownerColumn(ownerType); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f := DepositFilter{OwnerType: ownerType, OwnerID: ownerID, From: from, To: to}
	deleted := make([]models.Deposit, 0)
	for id, d := range s.deposits {
		if matches(d, f) {
			deleted = append(deleted, d)
			delete(s.deposits, id)
		}
	}
	sort.Slice(deleted, func(i, j int) bool { return deleted[i].ID < deleted[j].ID })
	return deleted, nil
}

func (s *MemStore) RestoreDeposits(_ context.Context, deposits []models.Deposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range deposits {
		if err := d.Validate(); err != nil {
			return errors.WithStack(err)
		}
		if err := s.checkRefs(d); err != nil {
			return err
		}
	}
	for _, d := range deposits {
		d.ID = s.nextID()
		d.UpdatedAt = s.now()
		d.WasteType, d.Class, d.Teacher = models.WasteType{}, nil, nil
		s.deposits[d.ID] = d
	}
	return nil
}

// Aggregation

func (s *MemStore) AggregateWindow(_ context.Context, dim Dimension, from, to time.Time) ([]GroupTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f := DepositFilter{From: from, To: to}
	rows := make([]LedgerRow, 0)
	for _, d := range s.deposits {
		if !matches(d, f) {
			continue
		}
		wt := s.wasteTypes[d.WasteTypeID]
		row := LedgerRow{WasteTypeName: wt.Name, WeightKg: d.WeightKg, PricePerKg: wt.PricePerKg}
		switch dim {
		case DimensionClass:
			if d.ClassID == nil {
				continue
			}
			row.GroupKey, row.GroupLabel = *d.ClassID, s.classes[*d.ClassID].Label()
		case DimensionTeacher:
			if d.TeacherID == nil {
				continue
			}
			row.GroupKey, row.GroupLabel = *d.TeacherID, s.teachers[*d.TeacherID].Name
		case DimensionWasteType:
			row.GroupKey, row.GroupLabel = wt.ID, wt.Name
		default:
			return nil, errors.Errorf("dimensi tidak dikenal: %q", dim)
		}
		rows = append(rows, row)
	}
	return Aggregate(rows), nil
}

func (s *MemStore) MonthlyTotals(_ context.Context, year int, ownerType models.OwnerType, loc *time.Location) ([]MonthTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMonth := make(map[int]*MonthTotal)
	for _, d := range s.deposits {
		if ownerType != "" {
			if typ, _ := d.Owner(); typ != ownerType {
				continue
			}
		}
		w := WindowOf(d.CreatedAt, loc)
		if w.Year != year {
			continue
		}
		mt, ok := byMonth[w.Month]
		if !ok {
			mt = &MonthTotal{Month: w.Month, TotalKg: decimal.Zero, TotalValue: decimal.Zero}
			byMonth[w.Month] = mt
		}
		mt.TotalKg = mt.TotalKg.Add(d.WeightKg)
		mt.TotalValue = mt.TotalValue.Add(d.WeightKg.Mul(s.wasteTypes[d.WasteTypeID].PricePerKg))
	}

	out := make([]MonthTotal, 0, len(byMonth))
	for _, mt := range byMonth {
		out = append(out, *mt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}
