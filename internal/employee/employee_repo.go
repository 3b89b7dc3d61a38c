package employee

import (
	"context"
	"database/sql"

	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/database"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, empl *Employee) error
	FindAll(ctx context.Context, skip, limit int) ([]Employee, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Delete(ctx context.Context, empl *Employee) error
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

func (r *repository) Create(ctx context.Context, empl *Employee) error {
	return r.db.WithContext(ctx).Omit("Attendances").Create(empl).Error
}

func (r *repository) FindAll(ctx context.Context, skip, limit int) ([]Employee, error) {
	var empls []Employee
	err := r.db.WithContext(ctx).
		Scopes(scope.Paginate(skip, limit)).
		Order("created_at ASC, id ASC").
		Find(&empls).Error
	return empls, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Employee, error) {
	var empl Employee
	err := r.db.WithContext(ctx).
		First(&empl, "id = ?", id).Error
	return &empl, err
}

func (r *repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Employee{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

// Delete removes the employee together with its attendance rows. The FK
// cascade covers the same rows; deleting the association here keeps the
// behaviour when the constraint is missing.
func (r *repository) Delete(ctx context.Context, empl *Employee) error {
	res := r.db.WithContext(ctx).
		Select("Attendances").
		Delete(empl)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
