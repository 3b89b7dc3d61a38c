package app

import (
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/attendance"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/employee"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/messaging/kafka"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the employees, attendance and outbox_events
// tables, including the attendance foreign key with ON DELETE CASCADE.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&employee.Employee{},
		&attendance.Attendance{},
		&kafka.OutboxRecord{},
	)
}
