package attendanceerrors

import (
	"net/http"

	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/apperror"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)
	ErrFutureDate = apperror.New(
		apperror.CodeInvalidInput,
		"Cannot mark attendance for future dates",
		http.StatusBadRequest,
	)
	ErrAlreadyMarked = apperror.New(
		apperror.CodeDuplicate,
		"Attendance already marked for this employee on this date",
		http.StatusBadRequest,
	)
	ErrInvalidDate = apperror.InvalidField("Date")
)
