package audit

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"sekolah-backend/internal/models"
)

var ErrNotFound = errors.New("log tidak ditemukan")

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

type Filter struct {
	EntityType string
	EntityID   uint
	UserID     uint
}

type Repository interface {
	Write(ctx context.Context, opts LogOptions) (models.AuditLog, error)
	List(ctx context.Context, f Filter) ([]models.AuditLog, error)
	Get(ctx context.Context, id uint) (models.AuditLog, error)
	// MarkUndone claims the log for undo; ErrNotFound when it is missing or
	// already undone.
	MarkUndone(ctx context.Context, id, userID uint) error
	// ReleaseUndone drops a claim taken by MarkUndone whose undo failed.
	ReleaseUndone(ctx context.Context, id uint) error
}

// newLog builds the row; jsonb columns need "null" rather than an empty string.
func newLog(opts LogOptions) models.AuditLog {
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	return models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Write(ctx context.Context, opts LogOptions) (models.AuditLog, error) {
	log := newLog(opts)
	if err := r.db.WithContext(ctx).Create(&log).Error; err != nil {
		return log, errors.Wrap(err, "audit log tidak dapat disimpan")
	}
	return log, nil
}

func (r *GormRepository) List(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	dbq := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.EntityType != "" {
		dbq = dbq.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID > 0 {
		dbq = dbq.Where("entity_id = ?", f.EntityID)
	}
	if f.UserID > 0 {
		dbq = dbq.Where("user_id = ?", f.UserID)
	}

	var logs []models.AuditLog
	if err := dbq.Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, errors.Wrap(err, "audit log tidak dapat dibaca")
	}
	return logs, nil
}

func (r *GormRepository) Get(ctx context.Context, id uint) (models.AuditLog, error) {
	var log models.AuditLog
	err := r.db.WithContext(ctx).First(&log, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return log, ErrNotFound
	}
	return log, errors.WithStack(err)
}

func (r *GormRepository) MarkUndone(ctx context.Context, id, userID uint) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.AuditLog{}).
		Where("id = ? AND is_undone = ?", id, false).
		Updates(map[string]interface{}{"is_undone": true, "undone_by": userID, "undone_at": now})
	if res.Error != nil {
		return errors.WithStack(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) ReleaseUndone(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.AuditLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_undone": false, "undone_by": nil, "undone_at": nil}).Error
	return errors.WithStack(err)
}

// MemoryRepository keeps logs in process; used by tests.
type MemoryRepository struct {
	mu   sync.Mutex
	logs []models.AuditLog
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Write(_ context.Context, opts LogOptions) (models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	log := newLog(opts)
	log.ID = uint(len(r.logs) + 1)
	log.CreatedAt = time.Now()
	r.logs = append(r.logs, log)
	return log, nil
}

func (r *MemoryRepository) List(_ context.Context, f Filter) ([]models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AuditLog, 0, len(r.logs))
	for _, l := range r.logs {
		if f.EntityType != "" && l.EntityType != f.EntityType {
			continue
		}
		if f.EntityID > 0 && l.EntityID != f.EntityID {
			continue
		}
		if f.UserID > 0 && l.UserID != f.UserID {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id uint) (models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == 0 || int(id) > len(r.logs) {
		return models.AuditLog{}, ErrNotFound
	}
	return r.logs[id-1], nil
}

func (r *MemoryRepository) MarkUndone(_ context.Context, id, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == 0 || int(id) > len(r.logs) || r.logs[id-1].IsUndone {
		return ErrNotFound
	}
	now := time.Now()
	r.logs[id-1].IsUndone = true
	r.logs[id-1].UndoneBy = &userID
	r.logs[id-1].UndoneAt = &now
	return nil
}

func (r *MemoryRepository) ReleaseUndone(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == 0 || int(id) > len(r.logs) {
		return ErrNotFound
	}
	r.logs[id-1].IsUndone = false
	r.logs[id-1].UndoneBy = nil
	r.logs[id-1].UndoneAt = nil
	return nil
}
