package sispendik

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pkg/errors"

	"sekolah-backend/internal/audit"
	"sekolah-backend/internal/cache"
	"sekolah-backend/internal/models"
	"sekolah-backend/internal/validate"
)

const (
	entityDeposit   = "deposit"
	entityWasteType = "waste_type"
	entityTeacher   = "teacher"
	entityPeriod    = "period"
)

// Actor is the back-office user performing a mutation.
type Actor struct {
	UserID   uint
	UserName string
}

type Options struct {
	Store    Store
	Cache    cache.Cache
	Audit    audit.Repository
	Location *time.Location
	Sections []string
	Now      func() time.Time
}

type Service struct {
	store    Store
	cache    cache.Cache
	audit    audit.Repository
	loc      *time.Location
	sections []string
	now      func() time.Time
	validate *validate.Validator
}

func NewService(opts Options) *Service {
	s := &Service{
		store:    opts.Store,
		cache:    opts.Cache,
		audit:    opts.Audit,
		loc:      opts.Location,
		sections: opts.Sections,
		now:      opts.Now,
		validate: validate.New(),
	}
	if s.cache == nil {
		s.cache = cache.Nop{}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func periodTag(w Window) string { return "period:" + w.String() }
func yearTag(year int) string   { return fmt.Sprintf("year:%04d", year) }

// afterWrite records the audit entry and signals stale reports. Both are best
// effort: the mutation already committed.
func (s *Service) afterWrite(ctx context.Context, entry audit.LogOptions, tags ...string) {
	if s.audit != nil {
		if _, err := s.audit.Write(ctx, entry); err != nil {
			log.Printf("[WARN] audit %s#%d: %v", entry.EntityType, entry.EntityID, err)
		}
	}
	if err := s.cache.Invalidate(ctx, tags...); err != nil {
		log.Printf("[WARN] cache invalidate %v: %v", tags, err)
	}
}

func (s *Service) depositTags(ts ...time.Time) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, t := range ts {
		w := WindowOf(t, s.loc)
		for _, tag := range []string{periodTag(w), yearTag(w.Year)} {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

func (s *Service) parseDate(field, v string) (time.Time, error) {
	if v == "" {
		return s.now(), nil
	}
	d, err := time.ParseInLocation("2006-01-02", v, s.loc)
	if err != nil {
		return time.Time{}, validate.NewValidationError(field, "format tanggal harus YYYY-MM-DD")
	}
	return d, nil
}

// catalogErr turns store conflicts into field errors.
func catalogErr(err error) error {
	switch errors.Cause(err) {
	case ErrDuplicate:
		return validate.NewValidationError("name", ErrDuplicate.Error())
	case ErrInUse:
		return validate.NewValidationError("id", ErrInUse.Error())
	}
	return err
}

// Waste types

func (s *Service) ListWasteTypes(ctx context.Context) ([]models.WasteType, error) {
	return s.store.ListWasteTypes(ctx)
}

func (s *Service) CreateWasteType(ctx context.Context, actor Actor, req WasteTypeRequest) (models.WasteType, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return models.WasteType{}, err
	}
	wt := models.WasteType{Name: req.Name, PricePerKg: req.PricePerKg}
	if err := s.store.CreateWasteType(ctx, &wt); err != nil {
		return wt, catalogErr(err)
	}
	s.afterWrite(ctx, audit.LogOptions{
		UserID: actor.UserID, UserName: actor.UserName,
		EntityType: entityWasteType, EntityID: wt.ID, Action: models.AuditActionCreate,
		Description: fmt.Sprintf("Jenis sampah baru: %s (Rp%s/kg)", wt.Name, wt.PricePerKg.StringFixed(2)),
		After:       wt,
	}, cache.TagAll)
	return wt, nil
}

// UpdateWasteType changes the current price; every historical report follows it.
func (s *Service) UpdateWasteType(ctx context.Context, actor Actor, id uint, req WasteTypeRequest) (models.WasteType, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return models.WasteType{}, err
	}
	before, err := s.store.GetWasteType(ctx, id)
	if err != nil {
		return before, err
	}
	wt := models.WasteType{ID: id, Name: req.Name, PricePerKg: req.PricePerKg}
	if err := s.store.UpdateWasteType(ctx, &wt); err != nil {
		return wt, catalogErr(err)
	}
	s.afterWrite(ctx, audit.LogOptions{
		UserID: actor.UserID, UserName: actor.UserName,
		EntityType: entityWasteType, EntityID: id, Action: models.AuditActionUpdate,
		Description: fmt.Sprintf("Jenis sampah diubah: %s", wt.Name),
		Before:      before, After: wt,
	}, cache.TagAll)
	return wt, nil
}

func (s *Service) DeleteWasteType(ctx context.Context, actor Actor, id uint) error {
	before, err := s.store.GetWasteType(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteWasteType(ctx, id); err != nil {
		return catalogErr(err)
	}
	s.afterWrite(ctx, audit.LogOptions{
		UserID: actor.UserID, UserName: actor.UserName,
		EntityType: entityWasteType, EntityID: id, Action: models.AuditActionDelete,
		Description: fmt.Sprintf("Jenis sampah dihapus: %s", before.Name),
		Before:      before,
	}, cache.TagAll)
	return nil
}

// Teachers and classes

func (s *Service) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	return s.store.ListTeachers(ctx)
}

func (s *Service) CreateTeacher(ctx context.Context, actor Actor, req TeacherRequest) (models.Teacher, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return models.Teacher{}, err
	}
	t := models.Teacher{Name: req.Name}
	if err := s.store.CreateTeacher(ctx, &t); err != nil {
		return t, catalogErr(err)
	}
	s.afterWrite(ctx, audit.LogOptions{
		UserID: actor.UserID, UserName: actor.UserName,
		EntityType: entityTeacher, EntityID: t.ID, Action: models.AuditActionCreate,
		Description: "Guru baru: " + t.Name,
		After:       t,
	}, cache.TagAll)
	return t, nil
}

func (s *Service) UpdateTeacher(ctx context.Context, actor Actor, id uint, req TeacherRequest) (models.Teacher, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return models.Teacher{}, err
	}
	before, err := s.store.GetTeacher(ctx, id)
	if err != nil {
		return before, err
	}
	t := models.Teacher{ID: id, Name: req.Name}
	if err := s.store.UpdateTeacher(ctx, &t); err != nil {
		return t, catalogErr(err)
	}
	s.afterWrite(ctx, audit.LogOptions{
		UserID: actor.UserID, UserName: actor.UserName,
		EntityType: entityTeacher, EntityID: id, Action: models.AuditActionUpdate,
		Description: fmt.Sprintf("Guru diubah: %s -> %s", before.Name, t.Name),
		Before:      before, After: t,
	}, cache.TagAll)
	return t, nil
}

func (s *Service) DeleteTeacher(ctx context.Context, actor Actor, id uint) error {
	before, err := s.store.GetTeacher(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTeacher(ctx, id); err != nil {
		return catalogErr(err)
	}
	s.afterWrite(ctx, audit.LogOptions{
		UserID: actor.UserID, UserName: actor.UserName,
		EntityType: entityTeacher, EntityID: id, Action: models.AuditActionDelete,
		Description: "Guru dihapus: " + before.Name,
		Before:      before,
	}, cache.TagAll)
	return nil
}

func (s *Service) ListClasses(ctx context.Context) ([]models.ClassRoom, error) {
	return s.store.ListClasses(ctx)
}

// SeedClasses is the explicit, idempotent class registry initialisation.
func (s *Service) SeedClasses(ctx context.Context) (int, error) {
	added, err := s.store.SeedClasses(ctx, s.sections)
	if err != nil {
		return 0, err
	}
	if added > 0 {
		if err := s.cache.Invalidate(ctx, cache.TagAll); err != nil {
			log.Printf("[WARN] cache invalidate: %v", err)
		}
	}
	return added, nil
}

// Deposits

func (s *Service) checkOwner(ctx context.Context, ownerType models.OwnerType, id uint) error {
	var err error
	switch ownerType {
	case models.OwnerClass:
		_, err = s.store.GetClass(ctx, id)
	case models.OwnerTeacher:
		_, err = s.store.GetTeacher(ctx, id)
	}
	if errors.Cause(err) == ErrNotFound {
		return validate.NewValidationError("owner_id", "kelas/guru tidak ditemukan")
	}
	return err
}

func (s *Service) checkWasteType(ctx context.Context, id uint) error {
	_, err := s.store.GetWasteType(ctx, id)
	if errors.Cause(err) == ErrNotFound {
		return validate.NewValidationError("waste_type_id", "jenis sampah tidak ditemukan")
	}
	return err
}

func (s *Service) GetDeposit(ctx context.Context, id uint) (models.Deposit, error) {
	return s.store.GetDeposit(ctx, id)
}

func (s *Service) ListDeposits(ctx context.Context, q DepositQuery) ([]models.Deposit, error) {
	if err := s.validate.Struct(q); err != nil {
		return nil, err
	}
	f := DepositFilter{
		OwnerType:   models.OwnerType(q.OwnerType),
		OwnerID:     q.OwnerID,
		WasteTypeID: q.WasteTypeID,
	}
	switch {
	case q.Month > 0:
		f.From, f.To = Window{Month: q.Month, Year: q.Year}.Range(s.loc)
	case q.Year > 0:
		f.From = time.Date(q.Year, time.January, 1, 0, 0, 0, 0, s.loc)
		f.To = f.From.AddDate(1, 0, 0)
	}
	return s.store.ListDeposits(ctx, f)
}

func (s *Service) CreateDeposit(ctx context.Context, actor Actor, req DepositRequest) (models.Deposit, error) {
	if err := s.validate.Struct(req); err != nil {
		return models.Deposit{}, err
	}
	at, err := s.parseDate("deposited_at", req.DepositedAt)
	if err != nil {
		return models.Deposit{}, err
	}
	ownerType := models.OwnerType(req.OwnerType)
	if err := s.checkOwner(ctx, ownerType, req.OwnerID); err != nil {
		return models.Deposit{}, err
	}
	if err := s.checkWasteType(ctx, req.WasteTypeID); err != nil {
		return models.Deposit{}, err
	}

	d := models.Deposit{WasteTypeID: req.WasteTypeID, WeightKg: req.WeightKg, CreatedAt: at}
	d.SetOwner(ownerType, req.OwnerID)
	if err := s.store.CreateDeposit(ctx, &d); err != nil {
		return d, err
	}
	created, err := s.store.GetDeposit(ctx, d.ID)
	if err != nil {
		return d, err
	}

	s.afterWrite(ctx, audit.LogOptions{
		UserID: actor.UserID, UserName: actor.UserName,
		EntityType: entityDeposit, EntityID: created.ID, Action: models.AuditActionCreate,
		Description: fmt.Sprintf("Setoran %s: %s kg %s", ownerLabel(created), created.WeightKg.String(), created.WasteType.Name),
		After:       created,
	}, s.depositTags(created.CreatedAt)...)
	return created, nil
}

func (s *Service) UpdateDeposit(ctx context.Context, actor Actor, id uint, req UpdateDepositRequest) (models.Deposit, error) {
	if err := s.validate.Struct(req); err != nil {
		return models.Deposit{}, err
	}
	before, err := s.store.GetDeposit(ctx, id)
	if err != nil {
		return before, err
	}
	at := before.CreatedAt
	if req.DepositedAt != "" {
		if at, err = s.parseDate("deposited_at", req.DepositedAt); err != nil {
			return before, err
		}
	}
	if err := s.checkWasteType(ctx, req.WasteTypeID); err != nil {
		return before, err
	}

	upd := before
	upd.WasteTypeID, upd.WeightKg, upd.CreatedAt = req.WasteTypeID, req.WeightKg, at
	if err := s.store.UpdateDeposit(ctx, &upd); err != nil {
		return before, err
	}
	after, err := s.store.GetDeposit(ctx, id)
	if err != nil {
		return before, err
	}

	s.afterWrite(ctx, audit.LogOptions{
		UserID: actor.UserID, UserName: actor.UserName,
		EntityType: entityDeposit, EntityID: id, Action: models.AuditActionUpdate,
		Description: fmt.Sprintf("Setoran %s diubah: %s kg -> %s kg", ownerLabel(after), before.WeightKg.String(), after.WeightKg.String()),
		Before:      before, After: after,
	}, s.depositTags(before.CreatedAt, after.CreatedAt)...)
	return after, nil
}

func (s *Service) DeleteDeposit(ctx context.Context, actor Actor, id uint) error {
	before, err := s.store.GetDeposit(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDeposit(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, audit.LogOptions{
		UserID: actor.UserID, UserName: actor.UserName,
		EntityType: entityDeposit, EntityID: id, Action: models.AuditActionDelete,
		Description: fmt.Sprintf("Setoran %s dihapus: %s kg %s", ownerLabel(before), before.WeightKg.String(), before.WasteType.Name),
		Before:      before,
	}, s.depositTags(before.CreatedAt)...)
	return nil
}

// ResetPeriod removes every deposit of one owner inside one month, atomically.
func (s *Service) ResetPeriod(ctx context.Context, actor Actor, req ResetRequest) (ResetResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return ResetResult{}, err
	}
	ownerType := models.OwnerType(req.OwnerType)
	if err := s.checkOwner(ctx, ownerType, req.OwnerID); err != nil {
		return ResetResult{}, err
	}
	w := Window{Month: req.Month, Year: req.Year}
	from, to := w.Range(s.loc)

	removed, err := s.store.ResetPeriod(ctx, ownerType, req.OwnerID, from, to)
	if err != nil {
		return ResetResult{}, err
	}
	deleted := int64(len(removed))

	s.afterWrite(ctx, audit.LogOptions{
		UserID: actor.UserID, UserName: actor.UserName,
		EntityType: entityPeriod, EntityID: req.OwnerID, Action: models.AuditActionReset,
		Description: fmt.Sprintf("Reset setoran %s #%d periode %s: %d data", ownerType, req.OwnerID, w, deleted),
		Before:      removed,
	}, periodTag(w), yearTag(w.Year))
	return ResetResult{Period: w, Deleted: deleted}, nil
}

func ownerLabel(d models.Deposit) string {
	if d.Class != nil {
		return "kelas " + d.Class.Label()
	}
	if d.Teacher != nil {
		return d.Teacher.Name
	}
	typ, id := d.Owner()
	return fmt.Sprintf("%s #%d", typ, id)
}

// Reports

// Report lists every registry entity of dim with its totals for the window.
func (s *Service) Report(ctx context.Context, dim Dimension, w Window) (Report, error) {
	if _, known := ParseDimension(string(dim)); !known {
		return Report{}, validate.NewValidationError("dimension", "dimensi laporan tidak dikenal")
	}
	if err := s.validate.Struct(w); err != nil {
		return Report{}, err
	}
	key := fmt.Sprintf("report:%s:%s", dim, w)
	var rep Report
	if ok, err := s.cache.Get(ctx, key, &rep); err != nil {
		log.Printf("[WARN] cache get %s: %v", key, err)
	} else if ok {
		return rep, nil
	}

	from, to := w.Range(s.loc)
	groups, err := s.store.AggregateWindow(ctx, dim, from, to)
	if err != nil {
		return Report{}, err
	}
	if rep, err = s.assemble(ctx, dim, w, groups); err != nil {
		return Report{}, err
	}

	if err := s.cache.Set(ctx, key, rep, periodTag(w)); err != nil {
		log.Printf("[WARN] cache set %s: %v", key, err)
	}
	return rep, nil
}

func (s *Service) assemble(ctx context.Context, dim Dimension, w Window, groups []GroupTotal) (Report, error) {
	switch dim {
	case DimensionClass:
		classes, err := s.store.ListClasses(ctx)
		if err != nil {
			return Report{}, err
		}
		return AssembleClassReport(w, classes, groups), nil
	case DimensionTeacher:
		teachers, err := s.store.ListTeachers(ctx)
		if err != nil {
			return Report{}, err
		}
		return AssembleTeacherReport(w, teachers, groups), nil
	case DimensionWasteType:
		types, err := s.store.ListWasteTypes(ctx)
		if err != nil {
			return Report{}, err
		}
		return AssembleWasteTypeReport(w, types, groups), nil
	}
	return Report{}, validate.NewValidationError("dimension", "dimensi laporan tidak dikenal")
}

// WasteTypeBreakdown reports every waste type of the window, unused ones included.
func (s *Service) WasteTypeBreakdown(ctx context.Context, w Window) (Report, error) {
	return s.Report(ctx, DimensionWasteType, w)
}

// Ranking returns the top n entities of the window, zero-activity ones included.
func (s *Service) Ranking(ctx context.Context, dim Dimension, w Window, n int) ([]Ranked, error) {
	rep, err := s.Report(ctx, dim, w)
	if err != nil {
		return nil, err
	}
	return Rank(rep.Rows, n), nil
}

func (s *Service) YearRecap(ctx context.Context, q RecapQuery) (YearRecap, error) {
	if err := s.validate.Struct(q); err != nil {
		return YearRecap{}, err
	}
	key := fmt.Sprintf("recap:%04d:%s", q.Year, q.OwnerType)
	var rec YearRecap
	if ok, err := s.cache.Get(ctx, key, &rec); err != nil {
		log.Printf("[WARN] cache get %s: %v", key, err)
	} else if ok {
		return rec, nil
	}

	totals, err := s.store.MonthlyTotals(ctx, q.Year, models.OwnerType(q.OwnerType), s.loc)
	if err != nil {
		return YearRecap{}, err
	}
	rec = FillYear(q.Year, q.OwnerType, totals)

	if err := s.cache.Set(ctx, key, rec, yearTag(q.Year)); err != nil {
		log.Printf("[WARN] cache set %s: %v", key, err)
	}
	return rec, nil
}

// Undo

var errNotUndoable = errors.New("aksi ini tidak dapat dibatalkan")

// UndoAuditLog reverts a deposit create/update/delete or a period reset.
// The log is claimed before any deposit is touched and released again when
// the revert fails, so a log is applied at most once.
func (s *Service) UndoAuditLog(ctx context.Context, actor Actor, logID uint) error {
	if s.audit == nil {
		return errNotUndoable
	}
	entry, err := s.audit.Get(ctx, logID)
	if err != nil {
		if errors.Cause(err) == audit.ErrNotFound {
			return ErrNotFound
		}
		return err
	}
	if !undoable(entry) {
		return validate.NewValidationError("id", errNotUndoable.Error())
	}
	if err := s.audit.MarkUndone(ctx, logID, actor.UserID); err != nil {
		if errors.Cause(err) == audit.ErrNotFound {
			return validate.NewValidationError("id", "aksi ini sudah dibatalkan")
		}
		return err
	}

	tags, err := s.revert(ctx, entry)
	if err != nil {
		if rerr := s.audit.ReleaseUndone(ctx, logID); rerr != nil {
			log.Printf("[ERROR] audit log %d tetap ditandai batal: %v", logID, rerr)
		}
		return err
	}

	s.afterWrite(ctx, audit.LogOptions{
		UserID: actor.UserID, UserName: actor.UserName,
		EntityType: entry.EntityType, EntityID: entry.EntityID, Action: models.AuditActionUndo,
		Description: "Dibatalkan: " + entry.Description,
		Before:      rawJSON(entry.AfterData),
		After:       rawJSON(entry.BeforeData),
	}, tags...)
	return nil
}

func undoable(entry models.AuditLog) bool {
	switch entry.EntityType {
	case entityDeposit:
		switch entry.Action {
		case models.AuditActionCreate, models.AuditActionUpdate, models.AuditActionDelete:
			return true
		}
	case entityPeriod:
		return entry.Action == models.AuditActionReset
	}
	return false
}

// revert applies the inverse of entry and returns the cache tags it touched.
func (s *Service) revert(ctx context.Context, entry models.AuditLog) ([]string, error) {
	switch entry.Action {
	case models.AuditActionCreate:
		d, err := s.store.GetDeposit(ctx, entry.EntityID)
		if err != nil {
			return nil, err
		}
		if err := s.store.DeleteDeposit(ctx, entry.EntityID); err != nil {
			return nil, err
		}
		return s.depositTags(d.CreatedAt), nil

	case models.AuditActionUpdate:
		var before models.Deposit
		if err := json.Unmarshal([]byte(entry.BeforeData), &before); err != nil {
			return nil, errors.Wrap(err, "data audit rusak")
		}
		cur, err := s.store.GetDeposit(ctx, entry.EntityID)
		if err != nil {
			return nil, err
		}
		before.ID = entry.EntityID
		if err := s.store.UpdateDeposit(ctx, &before); err != nil {
			return nil, err
		}
		return s.depositTags(cur.CreatedAt, before.CreatedAt), nil

	case models.AuditActionDelete:
		var before models.Deposit
		if err := json.Unmarshal([]byte(entry.BeforeData), &before); err != nil {
			return nil, errors.Wrap(err, "data audit rusak")
		}
		if err := s.restore(ctx, []models.Deposit{before}); err != nil {
			return nil, err
		}
		return s.depositTags(before.CreatedAt), nil

	case models.AuditActionReset:
		var removed []models.Deposit
		if err := json.Unmarshal([]byte(entry.BeforeData), &removed); err != nil {
			return nil, errors.Wrap(err, "data audit rusak")
		}
		if err := s.restore(ctx, removed); err != nil {
			return nil, err
		}
		var tags []string
		for _, d := range removed {
			tags = append(tags, s.depositTags(d.CreatedAt)...)
		}
		return tags, nil
	}
	return nil, validate.NewValidationError("id", errNotUndoable.Error())
}

func rawJSON(s string) any {
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}

func (s *Service) restore(ctx context.Context, deposits []models.Deposit) error {
	err := s.store.RestoreDeposits(ctx, deposits)
	if errors.Cause(err) == ErrNotFound {
		return validate.NewValidationError("id", "jenis sampah, kelas atau guru pada data ini sudah dihapus")
	}
	return err
}
