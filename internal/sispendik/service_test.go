package sispendik

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sekolah-backend/internal/audit"
	"sekolah-backend/internal/cache"
	"sekolah-backend/internal/models"
	"sekolah-backend/internal/validate"
)

var operator = Actor{UserID: 1, UserName: "Operator"}

type fixture struct {
	svc     *Service
	store   *MemStore
	cache   *cache.Memory
	audit   *audit.MemoryRepository
	classes map[string]uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   NewMemStore(),
		cache:   cache.NewMemory(),
		audit:   audit.NewMemoryRepository(),
		classes: make(map[string]uint),
	}
	f.svc = NewService(Options{
		Store:    f.store,
		Cache:    f.cache,
		Audit:    f.audit,
		Location: time.UTC,
		Sections: []string{"A", "B"},
		Now:      func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) },
	})

	added, err := f.svc.SeedClasses(context.Background())
	require.NoError(t, err)
	require.Equal(t, 6, added)

	classes, err := f.svc.ListClasses(context.Background())
	require.NoError(t, err)
	for _, c := range classes {
		f.classes[c.Label()] = c.ID
	}
	return f
}

func (f *fixture) wasteType(t *testing.T, name, price string) models.WasteType {
	t.Helper()
	wt, err := f.svc.CreateWasteType(context.Background(), operator, WasteTypeRequest{Name: name, PricePerKg: dec(price)})
	require.NoError(t, err)
	return wt
}

func (f *fixture) deposit(t *testing.T, ownerType string, ownerID, wasteTypeID uint, kg, date string) models.Deposit {
	t.Helper()
	d, err := f.svc.CreateDeposit(context.Background(), operator, DepositRequest{
		OwnerType:   ownerType,
		OwnerID:     ownerID,
		WasteTypeID: wasteTypeID,
		WeightKg:    dec(kg),
		DepositedAt: date,
	})
	require.NoError(t, err)
	return d
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var verr *validate.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	out := make([]string, 0, len(verr.Fields))
	for _, fe := range verr.Fields {
		out = append(out, fe.Field)
	}
	return out
}

func TestSeedClassesIdempotent(t *testing.T) {
	f := newFixture(t)
	added, err := f.svc.SeedClasses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	classes, err := f.svc.ListClasses(context.Background())
	require.NoError(t, err)
	require.Len(t, classes, 6)
	assert.Equal(t, "7A", classes[0].Label())
	assert.Equal(t, "9B", classes[5].Label())
}

func TestClassReportScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	plastik := f.wasteType(t, "Plastik", "2000")
	f.deposit(t, "class", f.classes["7A"], plastik.ID, "10", "2024-03-05")

	rep, err := f.svc.Report(ctx, DimensionClass, Window{Month: 3, Year: 2024})
	require.NoError(t, err)
	require.Len(t, rep.Rows, 6)

	assert.Equal(t, "7A", rep.Rows[0].Label)
	assertDec(t, "10", rep.Rows[0].TotalKg)
	assertDec(t, "20000", rep.Rows[0].TotalValue)
	assert.Equal(t, []string{"Plastik"}, rep.Rows[0].WasteTypes)

	assert.Equal(t, "7B", rep.Rows[1].Label)
	assertDec(t, "0", rep.Rows[1].TotalKg)
	assertDec(t, "0", rep.Rows[1].TotalValue)
	assert.Empty(t, rep.Rows[1].WasteTypes)

	ranked, err := f.svc.Ranking(ctx, DimensionClass, Window{Month: 3, Year: 2024}, 0)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "7A", ranked[0].Label)
	assert.Equal(t, "7B", ranked[1].Label)

	// April has nothing.
	rep, err = f.svc.Report(ctx, DimensionClass, Window{Month: 4, Year: 2024})
	require.NoError(t, err)
	assertDec(t, "0", rep.TotalKg)
}

func TestReportRejectsBadWindow(t *testing.T) {
	f := newFixture(t)
	for _, w := range []Window{{Month: 13, Year: 2024}, {Month: 0, Year: 2024}, {Month: 1, Year: 0}} {
		_, err := f.svc.Report(context.Background(), DimensionClass, w)
		assert.NotEmpty(t, fieldsOf(t, err), w.String())
	}
	_, err := f.svc.Report(context.Background(), Dimension("student"), Window{Month: 1, Year: 2024})
	assert.Equal(t, []string{"dimension"}, fieldsOf(t, err))
}

func TestCurrentPriceValuation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	kertas := f.wasteType(t, "Kertas", "1000")
	f.deposit(t, "class", f.classes["8A"], kertas.ID, "4", "2024-02-10")

	_, err := f.svc.UpdateWasteType(ctx, operator, kertas.ID, WasteTypeRequest{Name: "Kertas", PricePerKg: dec("1500")})
	require.NoError(t, err)

	rep, err := f.svc.Report(ctx, DimensionWasteType, Window{Month: 2, Year: 2024})
	require.NoError(t, err)
	require.Len(t, rep.Rows, 1)
	assertDec(t, "6000", rep.Rows[0].TotalValue)
}

func TestTeacherReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	plastik := f.wasteType(t, "Plastik", "2000")
	kaleng := f.wasteType(t, "Kaleng", "3000")

	sari, err := f.svc.CreateTeacher(ctx, operator, TeacherRequest{Name: "  Bu Sari "})
	require.NoError(t, err)
	assert.Equal(t, "Bu Sari", sari.Name)
	_, err = f.svc.CreateTeacher(ctx, operator, TeacherRequest{Name: "Pak Andi"})
	require.NoError(t, err)

	f.deposit(t, "teacher", sari.ID, plastik.ID, "1.5", "2024-03-01")
	f.deposit(t, "teacher", sari.ID, kaleng.ID, "0.5", "2024-03-31")
	f.deposit(t, "class", f.classes["9A"], kaleng.ID, "7", "2024-03-02")

	rep, err := f.svc.Report(ctx, DimensionTeacher, Window{Month: 3, Year: 2024})
	require.NoError(t, err)
	require.Len(t, rep.Rows, 2)
	assert.Equal(t, "Bu Sari", rep.Rows[0].Label)
	assertDec(t, "2", rep.Rows[0].TotalKg)
	assertDec(t, "4500", rep.Rows[0].TotalValue)
	assert.Equal(t, "Kaleng, Plastik", rep.Rows[0].WasteTypeList())
	assert.Equal(t, "Pak Andi", rep.Rows[1].Label)
	assertDec(t, "0", rep.Rows[1].TotalKg)
	assertDec(t, "2", rep.TotalKg)
}

func TestCreateDepositValidation(t *testing.T) {
	f := newFixture(t)
	plastik := f.wasteType(t, "Plastik", "2000")

	tests := []struct {
		name  string
		req   DepositRequest
		field string
	}{
		{"zero weight", DepositRequest{OwnerType: "class", OwnerID: f.classes["7A"], WasteTypeID: plastik.ID, WeightKg: dec("0")}, "weight_kg"},
		{"negative weight", DepositRequest{OwnerType: "class", OwnerID: f.classes["7A"], WasteTypeID: plastik.ID, WeightKg: dec("-1")}, "weight_kg"},
		{"three decimals", DepositRequest{OwnerType: "class", OwnerID: f.classes["7A"], WasteTypeID: plastik.ID, WeightKg: dec("1.234")}, "weight_kg"},
		{"bad owner type", DepositRequest{OwnerType: "student", OwnerID: 1, WasteTypeID: plastik.ID, WeightKg: dec("1")}, "owner_type"},
		{"unknown class", DepositRequest{OwnerType: "class", OwnerID: 999, WasteTypeID: plastik.ID, WeightKg: dec("1")}, "owner_id"},
		{"unknown teacher", DepositRequest{OwnerType: "teacher", OwnerID: f.classes["7A"], WasteTypeID: plastik.ID, WeightKg: dec("1")}, "owner_id"},
		{"unknown waste type", DepositRequest{OwnerType: "class", OwnerID: f.classes["7A"], WasteTypeID: 999, WeightKg: dec("1")}, "waste_type_id"},
		{"bad date", DepositRequest{OwnerType: "class", OwnerID: f.classes["7A"], WasteTypeID: plastik.ID, WeightKg: dec("1"), DepositedAt: "05/03/2024"}, "deposited_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateDeposit(context.Background(), operator, tt.req)
			assert.Contains(t, fieldsOf(t, err), tt.field)
		})
	}

	all, err := f.svc.ListDeposits(context.Background(), DepositQuery{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateDepositDefaultsToNow(t *testing.T) {
	f := newFixture(t)
	plastik := f.wasteType(t, "Plastik", "2000")
	d := f.deposit(t, "class", f.classes["7B"], plastik.ID, "2.25", "")
	assert.Equal(t, time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), d.CreatedAt)
	require.NotNil(t, d.Class)
	assert.Equal(t, "7B", d.Class.Label())
	assert.Equal(t, "Plastik", d.WasteType.Name)
}

func TestResetPeriodScope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	plastik := f.wasteType(t, "Plastik", "2000")
	a, b := f.classes["7A"], f.classes["7B"]

	f.deposit(t, "class", a, plastik.ID, "1", "2024-03-01")
	f.deposit(t, "class", a, plastik.ID, "2", "2024-03-31")
	keptApril := f.deposit(t, "class", a, plastik.ID, "3", "2024-04-01")
	keptOther := f.deposit(t, "class", b, plastik.ID, "4", "2024-03-10")

	res, err := f.svc.ResetPeriod(ctx, operator, ResetRequest{OwnerType: "class", OwnerID: a, Month: 3, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Deleted)
	assert.Equal(t, Window{Month: 3, Year: 2024}, res.Period)

	left, err := f.svc.ListDeposits(ctx, DepositQuery{})
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, keptApril.ID, left[0].ID)
	assert.Equal(t, keptOther.ID, left[1].ID)

	logs, err := f.audit.List(ctx, audit.Filter{EntityType: "period"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	var snapshot []models.Deposit
	require.NoError(t, json.Unmarshal([]byte(logs[0].BeforeData), &snapshot))
	require.Len(t, snapshot, 2)
	assertDec(t, "1", snapshot[0].WeightKg)
	assertDec(t, "2", snapshot[1].WeightKg)

	// second reset is a no-op
	res, err = f.svc.ResetPeriod(ctx, operator, ResetRequest{OwnerType: "class", OwnerID: a, Month: 3, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Deleted)

	_, err = f.svc.ResetPeriod(ctx, operator, ResetRequest{OwnerType: "class", OwnerID: a, Month: 13, Year: 2024})
	assert.Contains(t, fieldsOf(t, err), "month")
}

func TestListDepositsFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	plastik := f.wasteType(t, "Plastik", "2000")
	kertas := f.wasteType(t, "Kertas", "1000")
	f.deposit(t, "class", f.classes["7A"], plastik.ID, "1", "2024-03-01")
	f.deposit(t, "class", f.classes["7A"], kertas.ID, "1", "2024-03-02")
	f.deposit(t, "class", f.classes["8B"], plastik.ID, "1", "2023-03-02")

	got, err := f.svc.ListDeposits(ctx, DepositQuery{Month: 3, Year: 2024})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.True(t, got[0].CreatedAt.After(got[1].CreatedAt))

	got, err = f.svc.ListDeposits(ctx, DepositQuery{Year: 2023})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = f.svc.ListDeposits(ctx, DepositQuery{WasteTypeID: plastik.ID, OwnerType: "class", OwnerID: f.classes["7A"]})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = f.svc.ListDeposits(ctx, DepositQuery{Month: 3})
	assert.Contains(t, fieldsOf(t, err), "year")
}

func TestUpdateDepositMovesPeriod(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	plastik := f.wasteType(t, "Plastik", "2000")
	d := f.deposit(t, "class", f.classes["7A"], plastik.ID, "5", "2024-03-20")

	march := Window{Month: 3, Year: 2024}
	_, err := f.svc.Report(ctx, DimensionClass, march)
	require.NoError(t, err)

	upd, err := f.svc.UpdateDeposit(ctx, operator, d.ID, UpdateDepositRequest{WasteTypeID: plastik.ID, WeightKg: dec("6"), DepositedAt: "2024-04-02"})
	require.NoError(t, err)
	assertDec(t, "6", upd.WeightKg)
	owner, id := upd.Owner()
	assert.Equal(t, models.OwnerClass, owner)
	assert.Equal(t, f.classes["7A"], id)

	rep, err := f.svc.Report(ctx, DimensionClass, march)
	require.NoError(t, err)
	assertDec(t, "0", rep.TotalKg)

	rep, err = f.svc.Report(ctx, DimensionClass, Window{Month: 4, Year: 2024})
	require.NoError(t, err)
	assertDec(t, "6", rep.TotalKg)

	_, err = f.svc.UpdateDeposit(ctx, operator, 999, UpdateDepositRequest{WasteTypeID: plastik.ID, WeightKg: dec("1")})
	assert.True(t, errors.Cause(err) == ErrNotFound)
}

func TestCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	plastik := f.wasteType(t, "Plastik", "2000")
	march := Window{Month: 3, Year: 2024}

	_, err := f.svc.Report(ctx, DimensionClass, march)
	require.NoError(t, err)
	require.Equal(t, 1, f.cache.Len())

	// a deposit in another month leaves March cached
	f.deposit(t, "class", f.classes["7A"], plastik.ID, "1", "2024-04-01")
	assert.Equal(t, 1, f.cache.Len())

	f.deposit(t, "class", f.classes["7A"], plastik.ID, "2", "2024-03-02")
	assert.Equal(t, 0, f.cache.Len())
	last := f.cache.Events[len(f.cache.Events)-1]
	assert.Contains(t, last.Tags, "period:2024-03")
	assert.NotEmpty(t, last.ID)

	rep, err := f.svc.Report(ctx, DimensionClass, march)
	require.NoError(t, err)
	assertDec(t, "2", rep.TotalKg)

	// cached copy is served and equal
	again, err := f.svc.Report(ctx, DimensionClass, march)
	require.NoError(t, err)
	assertDec(t, "4000", again.TotalValue)
	assert.Equal(t, "7A", again.Rows[0].Label)

	// price changes drop every cached report
	_, err = f.svc.UpdateWasteType(ctx, operator, plastik.ID, WasteTypeRequest{Name: "Plastik", PricePerKg: dec("2500")})
	require.NoError(t, err)
	assert.Equal(t, 0, f.cache.Len())
}

func TestCatalogConstraints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	plastik := f.wasteType(t, "Plastik", "2000")

	_, err := f.svc.CreateWasteType(ctx, operator, WasteTypeRequest{Name: "plastik", PricePerKg: dec("1")})
	assert.Equal(t, []string{"name"}, fieldsOf(t, err))

	_, err = f.svc.CreateWasteType(ctx, operator, WasteTypeRequest{Name: "Besi", PricePerKg: dec("-1")})
	assert.Equal(t, []string{"price_per_kg"}, fieldsOf(t, err))

	_, err = f.svc.CreateWasteType(ctx, operator, WasteTypeRequest{Name: "   ", PricePerKg: dec("1")})
	assert.Equal(t, []string{"name"}, fieldsOf(t, err))

	d := f.deposit(t, "class", f.classes["7A"], plastik.ID, "1", "2024-03-01")
	err = f.svc.DeleteWasteType(ctx, operator, plastik.ID)
	assert.Equal(t, []string{"id"}, fieldsOf(t, err))

	require.NoError(t, f.svc.DeleteDeposit(ctx, operator, d.ID))
	require.NoError(t, f.svc.DeleteWasteType(ctx, operator, plastik.ID))

	err = f.svc.DeleteWasteType(ctx, operator, plastik.ID)
	assert.True(t, errors.Cause(err) == ErrNotFound)
}

func TestDeleteTeacherInUse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	plastik := f.wasteType(t, "Plastik", "2000")
	budi, err := f.svc.CreateTeacher(ctx, operator, TeacherRequest{Name: "Pak Budi"})
	require.NoError(t, err)
	f.deposit(t, "teacher", budi.ID, plastik.ID, "1", "2024-03-01")

	err = f.svc.DeleteTeacher(ctx, operator, budi.ID)
	assert.Equal(t, []string{"id"}, fieldsOf(t, err))

	renamed, err := f.svc.UpdateTeacher(ctx, operator, budi.ID, TeacherRequest{Name: "Pak Budi S."})
	require.NoError(t, err)
	assert.Equal(t, "Pak Budi S.", renamed.Name)
}

func TestYearRecap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	plastik := f.wasteType(t, "Plastik", "2000")
	sari, err := f.svc.CreateTeacher(ctx, operator, TeacherRequest{Name: "Bu Sari"})
	require.NoError(t, err)

	f.deposit(t, "class", f.classes["7A"], plastik.ID, "1", "2024-01-10")
	f.deposit(t, "class", f.classes["7B"], plastik.ID, "2", "2024-01-20")
	f.deposit(t, "teacher", sari.ID, plastik.ID, "5", "2024-06-01")
	f.deposit(t, "class", f.classes["7B"], plastik.ID, "9", "2023-12-31")

	rec, err := f.svc.YearRecap(ctx, RecapQuery{Year: 2024, OwnerType: "class"})
	require.NoError(t, err)
	require.Len(t, rec.Months, 12)
	assertDec(t, "3", rec.Months[0].TotalKg)
	assertDec(t, "0", rec.Months[5].TotalKg)
	assertDec(t, "6000", rec.TotalValue)

	rec, err = f.svc.YearRecap(ctx, RecapQuery{Year: 2024})
	require.NoError(t, err)
	assertDec(t, "8", rec.TotalKg)

	_, err = f.svc.YearRecap(ctx, RecapQuery{})
	assert.Contains(t, fieldsOf(t, err), "year")
}

func TestAuditTrail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	plastik := f.wasteType(t, "Plastik", "2000")
	d := f.deposit(t, "class", f.classes["7A"], plastik.ID, "1", "2024-03-01")

	logs, err := f.audit.List(ctx, audit.Filter{EntityType: "deposit", EntityID: d.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionCreate, logs[0].Action)
	assert.Equal(t, operator.UserID, logs[0].UserID)
	assert.Equal(t, "null", logs[0].BeforeData)
	assert.Contains(t, logs[0].AfterData, `"weight_kg":"1"`)
}

func TestUndoDepositDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	plastik := f.wasteType(t, "Plastik", "2000")
	d := f.deposit(t, "class", f.classes["7A"], plastik.ID, "1.75", "2024-03-01")
	require.NoError(t, f.svc.DeleteDeposit(ctx, operator, d.ID))

	logs, err := f.audit.List(ctx, audit.Filter{EntityType: "deposit", EntityID: d.ID})
	require.NoError(t, err)
	require.Equal(t, models.AuditActionDelete, logs[0].Action)

	require.NoError(t, f.svc.UndoAuditLog(ctx, operator, logs[0].ID))

	all, err := f.svc.ListDeposits(ctx, DepositQuery{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assertDec(t, "1.75", all[0].WeightKg)
	assert.Equal(t, d.CreatedAt.Unix(), all[0].CreatedAt.Unix())

	err = f.svc.UndoAuditLog(ctx, operator, logs[0].ID)
	assert.Equal(t, []string{"id"}, fieldsOf(t, err))
}

func TestUndoReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	plastik := f.wasteType(t, "Plastik", "2000")
	a := f.classes["7A"]
	f.deposit(t, "class", a, plastik.ID, "1", "2024-03-01")
	f.deposit(t, "class", a, plastik.ID, "2", "2024-03-02")

	_, err := f.svc.ResetPeriod(ctx, operator, ResetRequest{OwnerType: "class", OwnerID: a, Month: 3, Year: 2024})
	require.NoError(t, err)

	logs, err := f.audit.List(ctx, audit.Filter{EntityType: "period"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.NoError(t, f.svc.UndoAuditLog(ctx, operator, logs[0].ID))

	rep, err := f.svc.Report(ctx, DimensionClass, Window{Month: 3, Year: 2024})
	require.NoError(t, err)
	assertDec(t, "3", rep.Rows[0].TotalKg)
}

func TestUndoResetAfterCatalogDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	kertas := f.wasteType(t, "Kertas", "1500")
	plastik := f.wasteType(t, "Plastik", "2000")
	a := f.classes["7A"]
	f.deposit(t, "class", a, kertas.ID, "1", "2024-03-01")
	f.deposit(t, "class", a, plastik.ID, "2", "2024-03-02")

	_, err := f.svc.ResetPeriod(ctx, operator, ResetRequest{OwnerType: "class", OwnerID: a, Month: 3, Year: 2024})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteWasteType(ctx, operator, kertas.ID))

	logs, err := f.audit.List(ctx, audit.Filter{EntityType: "period"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	resetLog := logs[0].ID

	for attempt := 1; attempt <= 3; attempt++ {
		err := f.svc.UndoAuditLog(ctx, operator, resetLog)
		assert.Equal(t, []string{"id"}, fieldsOf(t, err), "attempt %d", attempt)

		all, err := f.svc.ListDeposits(ctx, DepositQuery{})
		require.NoError(t, err)
		assert.Empty(t, all, "attempt %d restored a partial period", attempt)

		entry, err := f.audit.Get(ctx, resetLog)
		require.NoError(t, err)
		assert.False(t, entry.IsUndone, "attempt %d", attempt)
	}

	// once the waste type is back under its old id the undo goes through
	f.store.mu.Lock()
	f.store.wasteTypes[kertas.ID] = kertas
	f.store.mu.Unlock()
	require.NoError(t, f.svc.UndoAuditLog(ctx, operator, resetLog))
	all, err := f.svc.ListDeposits(ctx, DepositQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	err = f.svc.UndoAuditLog(ctx, operator, resetLog)
	assert.Equal(t, []string{"id"}, fieldsOf(t, err))
	all, err = f.svc.ListDeposits(ctx, DepositQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRestoreDepositsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	plastik := models.WasteType{Name: "Plastik", PricePerKg: dec("2000")}
	require.NoError(t, s.CreateWasteType(ctx, &plastik))
	added, err := s.SeedClasses(ctx, []string{"A"})
	require.NoError(t, err)
	require.Equal(t, 3, added)
	classes, err := s.ListClasses(ctx)
	require.NoError(t, err)

	good := models.Deposit{WasteTypeID: plastik.ID, WeightKg: dec("1"), CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	good.SetOwner(models.OwnerClass, classes[0].ID)
	orphan := good
	orphan.WasteTypeID = 404

	err = s.RestoreDeposits(ctx, []models.Deposit{good, orphan})
	assert.Equal(t, ErrNotFound, errors.Cause(err))
	left, err := s.ListDeposits(ctx, DepositFilter{})
	require.NoError(t, err)
	assert.Empty(t, left)

	require.NoError(t, s.RestoreDeposits(ctx, []models.Deposit{good, good}))
	left, err = s.ListDeposits(ctx, DepositFilter{})
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.NotEqual(t, left[0].ID, left[1].ID)
	assert.True(t, left[0].CreatedAt.Equal(good.CreatedAt))

	from, to := Window{Month: 3, Year: 2024}.Range(time.UTC)
	removed, err := s.ResetPeriod(ctx, models.OwnerClass, classes[0].ID, from, to)
	require.NoError(t, err)
	require.Len(t, removed, 2)
	assert.ElementsMatch(t, []uint{left[0].ID, left[1].ID}, []uint{removed[0].ID, removed[1].ID})
	assertDec(t, "1", removed[1].WeightKg)
}

func TestUndoUnsupported(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.wasteType(t, "Plastik", "2000")

	logs, err := f.audit.List(ctx, audit.Filter{EntityType: "waste_type"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	err = f.svc.UndoAuditLog(ctx, operator, logs[0].ID)
	assert.Equal(t, []string{"id"}, fieldsOf(t, err))

	err = f.svc.UndoAuditLog(ctx, operator, 999)
	assert.True(t, errors.Cause(err) == ErrNotFound)
}
