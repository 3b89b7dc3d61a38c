package attendance

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	attendanceerrors "github.com/ARPITJ0SHI/Attendance-Manager/internal/attendance/errors"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/events"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/messaging/kafka"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/contextutil"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=attendance_service.go -destination=mock/attendance_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateAttendanceRequest) (AttendanceResponse, error)
	List(ctx context.Context, q ListAttendanceQuery) ([]AttendanceResponse, error)
	Summary(ctx context.Context, q SummaryQuery) (SummaryResponse, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	outbox  kafka.OutboxRepository
	metrics *metrics.Metrics
	now     func() time.Time
	logger  *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, nil, nil, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	outboxRepo kafka.OutboxRepository,
	m *metrics.Metrics,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("attendance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.service")
	}
	return &service{
		db:      db,
		repo:    repo,
		outbox:  outboxRepo,
		metrics: m,
		now:     time.Now,
		logger:  l,
	}
}

func (s *service) Create(ctx context.Context, req CreateAttendanceRequest) (AttendanceResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("mark attendance requested",
		zap.String("request_id", rid),
		zap.String("employee_id", req.EmployeeID),
		zap.String("date", req.Date),
	)

	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrEmployeeNotFound
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidDate
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("mark attendance begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	exists, err := qtx.EmployeeExists(ctx, employeeID)
	if err != nil {
		s.logger.Error("mark attendance employee lookup failed", zap.String("request_id", rid), zap.Error(err))
		return AttendanceResponse{}, mapRepositoryError(err)
	}
	if !exists {
		s.metrics.IncrementAttendanceRejected("employee_not_found")
		return AttendanceResponse{}, attendanceerrors.ErrEmployeeNotFound
	}

	if date.After(s.today()) {
		s.metrics.IncrementAttendanceRejected("future_date")
		return AttendanceResponse{}, attendanceerrors.ErrFutureDate
	}

	row := &Attendance{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		Date:       date,
		Status:     strings.TrimSpace(req.Status),
		CreatedAt:  s.now().UTC(),
	}

	if err := qtx.Create(ctx, row); err != nil {
		mapped := mapRepositoryError(err)
		if errors.Is(mapped, attendanceerrors.ErrAlreadyMarked) {
			s.metrics.IncrementAttendanceRejected("duplicate")
			s.logger.Warn("mark attendance duplicate",
				zap.String("request_id", rid),
				zap.String("employee_id", req.EmployeeID),
				zap.String("date", req.Date),
			)
		} else {
			s.logger.Error("mark attendance persist failed", zap.String("request_id", rid), zap.Error(err))
		}
		return AttendanceResponse{}, mapped
	}

	if s.outbox != nil {
		event, err := kafka.NewOutboxEvent(rid, "attendance", row.ID.String(), events.AttendanceMarkedType, events.AttendanceTopic,
			events.AttendanceMarkedEvent{
				EventType:    events.AttendanceMarkedType,
				RequestID:    rid,
				AttendanceID: row.ID.String(),
				EmployeeID:   row.EmployeeID.String(),
				Date:         row.Date.Format(time.DateOnly),
				Status:       row.Status,
				OccurredAt:   row.CreatedAt,
			})
		if err != nil {
			return AttendanceResponse{}, err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
			s.logger.Error("mark attendance outbox persist failed",
				zap.String("request_id", rid),
				zap.String("attendance_id", row.ID.String()),
				zap.Error(err),
			)
			return AttendanceResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("mark attendance commit failed", zap.String("request_id", rid), zap.Error(err))
		return AttendanceResponse{}, mapRepositoryError(err)
	}

	s.metrics.IncrementAttendanceMarked(row.Status)
	s.logger.Info("mark attendance success",
		zap.String("request_id", rid),
		zap.String("attendance_id", row.ID.String()),
		zap.String("employee_id", req.EmployeeID),
	)

	return mapToResponse(*row), nil
}

func (s *service) List(ctx context.Context, q ListAttendanceQuery) ([]AttendanceResponse, error) {
	f := ListFilter{Skip: q.Skip, Limit: q.Limit}

	if q.EmployeeID != "" {
		id, err := uuid.Parse(q.EmployeeID)
		if err != nil {
			return nil, attendanceerrors.ErrEmployeeNotFound
		}
		f.EmployeeID = &id
	}

	var err error
	if f.Date, err = optionalDate(q.Date); err != nil {
		return nil, err
	}
	if f.StartDate, err = optionalDate(q.StartDate); err != nil {
		return nil, err
	}
	if f.EndDate, err = optionalDate(q.EndDate); err != nil {
		return nil, err
	}

	rows, err := s.repo.FindAll(ctx, f)
	if err != nil {
		s.logger.Error("list attendance failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	res := make([]AttendanceResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r)
	}
	return res, nil
}

// Summary counts attendance for q.Date, or for today when no date is given.
func (s *service) Summary(ctx context.Context, q SummaryQuery) (SummaryResponse, error) {
	date := s.today()
	if q.Date != "" {
		d, err := parseDate(q.Date)
		if err != nil {
			return SummaryResponse{}, attendanceerrors.ErrInvalidDate
		}
		date = d
	}

	total, err := s.repo.CountEmployees(ctx)
	if err != nil {
		s.logger.Error("attendance summary employee count failed", zap.Error(err))
		return SummaryResponse{}, err
	}

	byStatus, err := s.repo.CountByStatus(ctx, date)
	if err != nil {
		s.logger.Error("attendance summary status count failed", zap.Error(err))
		return SummaryResponse{}, err
	}

	var marked int64
	for _, n := range byStatus {
		marked += n
	}

	return SummaryResponse{
		Date:           date.Format(time.DateOnly),
		TotalEmployees: total,
		Marked:         marked,
		Unmarked:       max(total-marked, 0),
		ByStatus:       byStatus,
	}, nil
}

// today is the current calendar day on the server clock, as midnight UTC so
// it compares directly with parsed dates.
func (s *service) today() time.Time {
	now := s.now().In(time.Local)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func parseDate(v string) (time.Time, error) {
	return time.Parse(time.DateOnly, v)
}

func optionalDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	d, err := parseDate(v)
	if err != nil {
		return nil, attendanceerrors.ErrInvalidDate
	}
	return &d, nil
}

func mapToResponse(a Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:         a.ID.String(),
		EmployeeID: a.EmployeeID.String(),
		Date:       a.Date.Format(time.DateOnly),
		Status:     a.Status,
		CreatedAt:  a.CreatedAt,
	}
}
