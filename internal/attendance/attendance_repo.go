package attendance

import (
	"context"
	"database/sql"
	"time"

	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/database"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListFilter narrows FindAll. Nil fields are not applied.
type ListFilter struct {
	EmployeeID *uuid.UUID
	Date       *time.Time
	StartDate  *time.Time
	EndDate    *time.Time
	Skip       int
	Limit      int
}

//go:generate mockgen -source=attendance_repo.go -destination=mock/attendance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	EmployeeExists(ctx context.Context, employeeID uuid.UUID) (bool, error)
	Create(ctx context.Context, a *Attendance) error
	FindAll(ctx context.Context, f ListFilter) ([]Attendance, error)
	CountEmployees(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, date time.Time) (map[string]int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: database.BindTx(r.db, tx)}
}

func (r *repository) EmployeeExists(ctx context.Context, employeeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("employees").
		Where("id = ?", employeeID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) Create(ctx context.Context, a *Attendance) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) FindAll(ctx context.Context, f ListFilter) ([]Attendance, error) {
	q := r.db.WithContext(ctx).Model(&Attendance{})
	if f.EmployeeID != nil {
		q = q.Where("employee_id = ?", *f.EmployeeID)
	}
	if f.Date != nil {
		q = q.Where("date = ?", f.Date.Format(time.DateOnly))
	}

	var rows []Attendance
	err := q.
		Scopes(
			scope.DateBetween("date", f.StartDate, f.EndDate),
			scope.Paginate(f.Skip, f.Limit),
		).
		Order("date DESC, created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CountEmployees(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("employees").Count(&count).Error
	return count, err
}

func (r *repository) CountByStatus(ctx context.Context, date time.Time) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&Attendance{}).
		Select("LOWER(status) AS status, COUNT(*) AS total").
		Where("date = ?", date.Format(time.DateOnly)).
		Group("LOWER(status)").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
