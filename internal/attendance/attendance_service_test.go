package attendance

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	attendanceerrors "github.com/ARPITJ0SHI/Attendance-Manager/internal/attendance/errors"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/events"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/messaging/kafka"
	kafkaMock "github.com/ARPITJ0SHI/Attendance-Manager/internal/messaging/kafka/mock"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/contextutil"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/metrics"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeRepo struct {
	employeeExistsFn func(ctx context.Context, employeeID uuid.UUID) (bool, error)
	createFn         func(ctx context.Context, a *Attendance) error
	findAllFn        func(ctx context.Context, f ListFilter) ([]Attendance, error)
	countEmployeesFn func(ctx context.Context) (int64, error)
	countByStatusFn  func(ctx context.Context, date time.Time) (map[string]int64, error)
}

func (f *fakeRepo) WithTx(tx *sql.Tx) Repository { return f }
func (f *fakeRepo) EmployeeExists(ctx context.Context, employeeID uuid.UUID) (bool, error) {
	return f.employeeExistsFn(ctx, employeeID)
}
func (f *fakeRepo) Create(ctx context.Context, a *Attendance) error { return f.createFn(ctx, a) }
func (f *fakeRepo) FindAll(ctx context.Context, filter ListFilter) ([]Attendance, error) {
	return f.findAllFn(ctx, filter)
}
func (f *fakeRepo) CountEmployees(ctx context.Context) (int64, error) { return f.countEmployeesFn(ctx) }
func (f *fakeRepo) CountByStatus(ctx context.Context, date time.Time) (map[string]int64, error) {
	return f.countByStatusFn(ctx, date)
}

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.Local)

func newTestService(t *testing.T, repo Repository, outbox kafka.OutboxRepository, m *metrics.Metrics) (*service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewServiceWithOutbox(db, repo, outbox, m).(*service)
	svc.now = func() time.Time { return fixedNow }
	return svc, mock
}

func existingEmployee(ctx context.Context, employeeID uuid.UUID) (bool, error) { return true, nil }

func TestService_Create(t *testing.T) {
	employeeID := uuid.New()

	t.Run("today is accepted and queues event", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		outbox := kafkaMock.NewMockOutboxRepository(ctrl)
		m := metrics.New(prometheus.NewRegistry())

		var saved Attendance
		repo := &fakeRepo{
			employeeExistsFn: existingEmployee,
			createFn: func(ctx context.Context, a *Attendance) error {
				saved = *a
				return nil
			},
		}
		svc, mock := newTestService(t, repo, outbox, m)
		ctx := contextutil.WithRequestID(context.Background(), "REQ-1")

		mock.ExpectBegin()
		mock.ExpectCommit()
		outbox.EXPECT().WithTx(gomock.Any()).Return(outbox)
		outbox.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, ev kafka.OutboxEvent) error {
				assert.Equal(t, events.AttendanceMarkedType, ev.EventType)
				assert.Equal(t, events.AttendanceTopic, ev.Topic)
				assert.Equal(t, saved.ID.String(), ev.AggregateID)
				assert.Equal(t, "REQ-1", ev.RequestID)
				return nil
			})

		resp, err := svc.Create(ctx, CreateAttendanceRequest{
			EmployeeID: employeeID.String(),
			Date:       "2024-06-15",
			Status:     "present",
		})

		require.NoError(t, err)
		assert.Equal(t, "2024-06-15", resp.Date)
		assert.Equal(t, employeeID.String(), resp.EmployeeID)
		assert.Equal(t, "present", resp.Status)
		assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), saved.Date)
		assert.Equal(t, float64(1), testutil.ToFloat64(m.AttendanceMarked.WithLabelValues("present")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("past date without outbox", func(t *testing.T) {
		repo := &fakeRepo{
			employeeExistsFn: existingEmployee,
			createFn:         func(ctx context.Context, a *Attendance) error { return nil },
		}
		svc, mock := newTestService(t, repo, nil, nil)

		mock.ExpectBegin()
		mock.ExpectCommit()

		resp, err := svc.Create(context.Background(), CreateAttendanceRequest{
			EmployeeID: employeeID.String(),
			Date:       "2024-01-01",
			Status:     "absent",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, resp.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tomorrow is rejected", func(t *testing.T) {
		created := false
		repo := &fakeRepo{
			employeeExistsFn: existingEmployee,
			createFn: func(ctx context.Context, a *Attendance) error {
				created = true
				return nil
			},
		}
		m := metrics.New(prometheus.NewRegistry())
		svc, mock := newTestService(t, repo, nil, m)

		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := svc.Create(context.Background(), CreateAttendanceRequest{
			EmployeeID: employeeID.String(),
			Date:       "2024-06-16",
			Status:     "present",
		})

		assert.ErrorIs(t, err, attendanceerrors.ErrFutureDate)
		assert.False(t, created)
		assert.Equal(t, float64(1), testutil.ToFloat64(m.AttendanceRejected.WithLabelValues("future_date")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown employee", func(t *testing.T) {
		repo := &fakeRepo{
			employeeExistsFn: func(ctx context.Context, id uuid.UUID) (bool, error) { return false, nil },
		}
		svc, mock := newTestService(t, repo, nil, nil)

		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := svc.Create(context.Background(), CreateAttendanceRequest{
			EmployeeID: employeeID.String(),
			Date:       "2024-01-01",
			Status:     "present",
		})

		assert.ErrorIs(t, err, attendanceerrors.ErrEmployeeNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown employee wins over future date", func(t *testing.T) {
		repo := &fakeRepo{
			employeeExistsFn: func(ctx context.Context, id uuid.UUID) (bool, error) { return false, nil },
		}
		svc, mock := newTestService(t, repo, nil, nil)

		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := svc.Create(context.Background(), CreateAttendanceRequest{
			EmployeeID: employeeID.String(),
			Date:       "2099-01-01",
			Status:     "present",
		})

		assert.ErrorIs(t, err, attendanceerrors.ErrEmployeeNotFound)
	})

	t.Run("already marked", func(t *testing.T) {
		repo := &fakeRepo{
			employeeExistsFn: existingEmployee,
			createFn: func(ctx context.Context, a *Attendance) error {
				return &pgconn.PgError{Code: "23505", ConstraintName: "unique_employee_attendance_per_day"}
			},
		}
		svc, mock := newTestService(t, repo, nil, nil)

		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := svc.Create(context.Background(), CreateAttendanceRequest{
			EmployeeID: employeeID.String(),
			Date:       "2024-01-01",
			Status:     "present",
		})

		assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyMarked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("employee deleted concurrently", func(t *testing.T) {
		repo := &fakeRepo{
			employeeExistsFn: existingEmployee,
			createFn: func(ctx context.Context, a *Attendance) error {
				return &pgconn.PgError{Code: "23503", ConstraintName: "fk_employees_attendances"}
			},
		}
		svc, mock := newTestService(t, repo, nil, nil)

		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := svc.Create(context.Background(), CreateAttendanceRequest{
			EmployeeID: employeeID.String(),
			Date:       "2024-01-01",
			Status:     "present",
		})

		assert.ErrorIs(t, err, attendanceerrors.ErrEmployeeNotFound)
	})

	t.Run("storage failure is passed through", func(t *testing.T) {
		repo := &fakeRepo{
			employeeExistsFn: func(ctx context.Context, id uuid.UUID) (bool, error) {
				return false, errors.New("connection reset")
			},
		}
		svc, mock := newTestService(t, repo, nil, nil)

		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := svc.Create(context.Background(), CreateAttendanceRequest{
			EmployeeID: employeeID.String(),
			Date:       "2024-01-01",
			Status:     "present",
		})

		assert.EqualError(t, err, "connection reset")
	})
}

func TestService_List(t *testing.T) {
	t.Run("builds filter from query", func(t *testing.T) {
		employeeID := uuid.New()
		created := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
		repo := &fakeRepo{
			findAllFn: func(ctx context.Context, f ListFilter) ([]Attendance, error) {
				require.NotNil(t, f.EmployeeID)
				assert.Equal(t, employeeID, *f.EmployeeID)
				assert.Nil(t, f.Date)
				require.NotNil(t, f.StartDate)
				require.NotNil(t, f.EndDate)
				assert.Equal(t, "2024-01-01", f.StartDate.Format(time.DateOnly))
				assert.Equal(t, "2024-01-31", f.EndDate.Format(time.DateOnly))
				assert.Equal(t, 0, f.Skip)
				assert.Equal(t, 1000, f.Limit)
				return []Attendance{{
					ID:         uuid.New(),
					EmployeeID: employeeID,
					Date:       time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
					Status:     "present",
					CreatedAt:  created,
				}}, nil
			},
		}
		svc, _ := newTestService(t, repo, nil, nil)

		resp, err := svc.List(context.Background(), ListAttendanceQuery{
			EmployeeID: employeeID.String(),
			StartDate:  "2024-01-01",
			EndDate:    "2024-01-31",
			Limit:      1000,
		})

		require.NoError(t, err)
		require.Len(t, resp, 1)
		assert.Equal(t, "2024-01-02", resp[0].Date)
		assert.Equal(t, created, resp[0].CreatedAt)
	})

	t.Run("no filters returns empty list", func(t *testing.T) {
		repo := &fakeRepo{
			findAllFn: func(ctx context.Context, f ListFilter) ([]Attendance, error) {
				assert.Nil(t, f.EmployeeID)
				assert.Nil(t, f.Date)
				return nil, nil
			},
		}
		svc, _ := newTestService(t, repo, nil, nil)

		resp, err := svc.List(context.Background(), ListAttendanceQuery{Limit: 1000})

		require.NoError(t, err)
		assert.NotNil(t, resp)
		assert.Empty(t, resp)
	})

	t.Run("invalid date", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeRepo{}, nil, nil)

		_, err := svc.List(context.Background(), ListAttendanceQuery{Date: "2024-13-01"})

		assert.ErrorIs(t, err, attendanceerrors.ErrInvalidDate)
	})
}

func TestService_Summary(t *testing.T) {
	t.Run("defaults to today", func(t *testing.T) {
		repo := &fakeRepo{
			countEmployeesFn: func(ctx context.Context) (int64, error) { return 5, nil },
			countByStatusFn: func(ctx context.Context, date time.Time) (map[string]int64, error) {
				assert.Equal(t, "2024-06-15", date.Format(time.DateOnly))
				return map[string]int64{"present": 3, "absent": 1}, nil
			},
		}
		svc, _ := newTestService(t, repo, nil, nil)

		resp, err := svc.Summary(context.Background(), SummaryQuery{})

		require.NoError(t, err)
		assert.Equal(t, SummaryResponse{
			Date:           "2024-06-15",
			TotalEmployees: 5,
			Marked:         4,
			Unmarked:       1,
			ByStatus:       map[string]int64{"present": 3, "absent": 1},
		}, resp)
	})

	t.Run("explicit date", func(t *testing.T) {
		repo := &fakeRepo{
			countEmployeesFn: func(ctx context.Context) (int64, error) { return 0, nil },
			countByStatusFn: func(ctx context.Context, date time.Time) (map[string]int64, error) {
				assert.Equal(t, "2024-01-01", date.Format(time.DateOnly))
				return map[string]int64{}, nil
			},
		}
		svc, _ := newTestService(t, repo, nil, nil)

		resp, err := svc.Summary(context.Background(), SummaryQuery{Date: "2024-01-01"})

		require.NoError(t, err)
		assert.Equal(t, int64(0), resp.Unmarked)
	})

	t.Run("count failure", func(t *testing.T) {
		repo := &fakeRepo{
			countEmployeesFn: func(ctx context.Context) (int64, error) { return 0, errors.New("db down") },
		}
		svc, _ := newTestService(t, repo, nil, nil)

		_, err := svc.Summary(context.Background(), SummaryQuery{})

		assert.EqualError(t, err, "db down")
	})
}
