package attendance

import (
	"time"

	"github.com/google/uuid"
)

// Attendance is one employee's status for one calendar day. Date holds
// midnight UTC of that day.
type Attendance struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"column:employee_id;type:uuid;not null;uniqueIndex:unique_employee_attendance_per_day,priority:1"`
	Date       time.Time `gorm:"column:date;type:date;not null;uniqueIndex:unique_employee_attendance_per_day,priority:2;index"`
	Status     string    `gorm:"column:status;type:varchar(10);not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
}

func (Attendance) TableName() string {
	return "attendance"
}
