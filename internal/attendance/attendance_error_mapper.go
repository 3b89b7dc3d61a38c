package attendance

import (
	"errors"
	"strings"

	attendanceerrors "github.com/ARPITJ0SHI/Attendance-Manager/internal/attendance/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	attendancePerDayConstraint = "unique_employee_attendance_per_day"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return attendanceerrors.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == attendancePerDayConstraint:
			return attendanceerrors.ErrAlreadyMarked
		case pgErr.Code == pgForeignKeyViolation:
			return attendanceerrors.ErrEmployeeNotFound
		}
	}

	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, attendancePerDayConstraint):
		return attendanceerrors.ErrAlreadyMarked
	case strings.Contains(errMsg, "violates foreign key constraint"):
		return attendanceerrors.ErrEmployeeNotFound
	}

	return err
}
