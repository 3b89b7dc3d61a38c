package employee

import (
	"time"

	"github.com/ARPITJ0SHI/Attendance-Manager/internal/attendance"

	"github.com/google/uuid"
)

type Employee struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	FullName    string                  `gorm:"column:full_name;type:varchar(100);not null"`
	Email       string                  `gorm:"column:email;type:varchar(150);not null;uniqueIndex:uq_employee_email"`
	Department  string                  `gorm:"column:department;type:varchar(50);not null"`
	CreatedAt   time.Time               `gorm:"column:created_at;not null"`
	Attendances []attendance.Attendance `gorm:"foreignKey:EmployeeID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Employee) TableName() string {
	return "employees"
}
