package lead

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Filter narrows dashboard listings and exports. Zero values disable a criterion.
type Filter struct {
	Search string
	Status Status
	Since  time.Time
	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, lead *Lead) error
	GetByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, f Filter) ([]Lead, int64, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Lead, error)
	UpdateNotes(ctx context.Context, id string, notes *string) (*Lead, error)
	AppendAttachment(ctx context.Context, id, path string) (*Lead, error)
	RemoveAttachment(ctx context.Context, id, path string) (*Lead, error)
	Delete(ctx context.Context, id string) (*Lead, error)
	Stats(ctx context.Context, weekStart time.Time) (*Stats, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, lead *Lead) error {
	if err := r.db.WithContext(ctx).Create(lead).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrLeadExists
		}
		return err
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Lead, error) {
	return first(r.db.WithContext(ctx), id)
}

func (r *repository) List(ctx context.Context, f Filter) ([]Lead, int64, error) {
	var leads []Lead
	var total int64

	base := applyFilter(r.db.WithContext(ctx).Model(&Lead{}), f)
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := base.Session(&gorm.Session{}).Order("created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Find(&leads).Error; err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id string, status Status) (*Lead, error) {
	return r.mutate(ctx, id, "status", func(l *Lead) error {
		l.Status = status
		return nil
	})
}

func (r *repository) UpdateNotes(ctx context.Context, id string, notes *string) (*Lead, error) {
	return r.mutate(ctx, id, "notes", func(l *Lead) error {
		l.Notes = notes
		return nil
	})
}

// AppendAttachment adds path once; appending an existing path is a no-op.
func (r *repository) AppendAttachment(ctx context.Context, id, path string) (*Lead, error) {
	return r.mutate(ctx, id, "attachments", func(l *Lead) error {
		if !l.HasAttachment(path) {
			l.Attachments = append(l.Attachments, path)
		}
		return nil
	})
}

func (r *repository) RemoveAttachment(ctx context.Context, id, path string) (*Lead, error) {
	return r.mutate(ctx, id, "attachments", func(l *Lead) error {
		i := slices.Index(l.Attachments, path)
		if i < 0 {
			return ErrAttachmentNotFound
		}
		l.Attachments = slices.Delete(l.Attachments, i, i+1)
		return nil
	})
}

// Delete removes the lead and returns it so callers can clean up its blobs.
func (r *repository) Delete(ctx context.Context, id string) (*Lead, error) {
	var deleted *Lead
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l, err := first(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&Lead{}, "id = ?", id).Error; err != nil {
			return err
		}
		deleted = l
		return nil
	})
	return deleted, err
}

func (r *repository) Stats(ctx context.Context, weekStart time.Time) (*Stats, error) {
	db := r.db.WithContext(ctx)

	type row struct {
		Status Status
		Count  int64
	}
	var rows []row
	if err := db.Model(&Lead{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &Stats{}
	for _, rw := range rows {
		stats.Total += rw.Count
		switch rw.Status {
		case StatusNew:
			stats.New += rw.Count
		case StatusContacted, StatusInProgress:
			stats.InProgress += rw.Count
		case StatusCompleted:
			stats.Completed += rw.Count
		}
	}

	if err := db.Model(&Lead{}).Where("created_at >= ?", weekStart).Count(&stats.ThisWeek).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// mutate applies fn to the row locked for update and writes back column
// only, so concurrent changes to other columns are kept.
func (r *repository) mutate(ctx context.Context, id, column string, fn func(l *Lead) error) (*Lead, error) {
	var updated *Lead
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l, err := first(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
		if err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
		if err := tx.Model(l).Select(column, "updated_at").Updates(l).Error; err != nil {
			return err
		}
		updated = l
		return nil
	})
	return updated, err
}

func first(db *gorm.DB, id string) (*Lead, error) {
	var l Lead
	if err := db.First(&l, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	if l.Attachments == nil {
		l.Attachments = []string{}
	}
	return &l, nil
}

func applyFilter(q *gorm.DB, f Filter) *gorm.DB {
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		like := "%" + term + "%"
		q = q.Where(
			"LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ? OR LOWER(vehicle_brand) LIKE ? OR LOWER(location) LIKE ?",
			like, like, like, like, like,
		)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}
	return q
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
