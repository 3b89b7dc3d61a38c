package employee_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ARPITJ0SHI/Attendance-Manager/internal/employee"
	employeeerrors "github.com/ARPITJ0SHI/Attendance-Manager/internal/employee/errors"
	employeeMock "github.com/ARPITJ0SHI/Attendance-Manager/internal/employee/mock"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/events"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/messaging/kafka"
	kafkaMock "github.com/ARPITJ0SHI/Attendance-Manager/internal/messaging/kafka/mock"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/contextutil"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/metrics"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type serviceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	service   employee.Service
	repo      *employeeMock.MockRepository
	outbox    *kafkaMock.MockOutboxRepository
	redismock redismock.ClientMock
	metrics   *metrics.Metrics
}

func setupServiceTest(t *testing.T) *serviceDeps {
	ctrl := gomock.NewController(t)

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dbRedis, redisMock := redismock.NewClientMock()
	repo := employeeMock.NewMockRepository(ctrl)
	outboxRepo := kafkaMock.NewMockOutboxRepository(ctrl)
	m := metrics.New(prometheus.NewRegistry())

	svc := employee.NewServiceWithOutbox(db, repo, outboxRepo, dbRedis, m)

	return &serviceDeps{
		db:        db,
		sqlMock:   sqlMock,
		service:   svc,
		repo:      repo,
		outbox:    outboxRepo,
		redismock: redisMock,
		metrics:   m,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

type outboxMatcher struct {
	eventType string
	requestID string
}

// matchOutbox checks the event type and request id of a queued outbox event.
func matchOutbox(eventType, rid string) gomock.Matcher {
	return outboxMatcher{eventType: eventType, requestID: rid}
}

func (m outboxMatcher) Matches(x any) bool {
	ev, ok := x.(kafka.OutboxEvent)
	return ok && ev.EventType == m.eventType && ev.RequestID == m.requestID && ev.Status == kafka.OutboxStatusPending
}

func (m outboxMatcher) String() string {
	return "outbox event " + m.eventType
}

func TestEmployeeService_Create(t *testing.T) {
	req := employee.CreateEmployeeRequest{
		FullName:   " Ada Lovelace ",
		Email:      "Ada@Example.com",
		Department: "Engineering",
	}

	t.Run("success - normalizes input and queues event", func(t *testing.T) {
		deps := setupServiceTest(t)
		rid := "REQ-123"
		ctx := contextutil.WithRequestID(context.Background(), rid)

		expectTx(t, deps.sqlMock, true)

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().ExistsByEmail(ctx, "ada@example.com").Return(false, nil)
		deps.repo.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, e *employee.Employee) error {
				assert.NotEqual(t, uuid.Nil, e.ID)
				assert.Equal(t, "Ada Lovelace", e.FullName)
				assert.Equal(t, "ada@example.com", e.Email)
				assert.False(t, e.CreatedAt.IsZero())
				return nil
			})
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(ctx, matchOutbox(events.EmployeeCreatedType, rid)).Return(nil)
		deps.redismock.ExpectDel(employee.EmployeeListCacheKey).SetVal(1)

		resp, err := deps.service.Create(ctx, req)

		require.NoError(t, err)
		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, "ada@example.com", resp.Email)
		assert.Equal(t, "Engineering", resp.Department)
		assert.Equal(t, float64(1), testutil.ToFloat64(deps.metrics.EmployeesCreated))
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("duplicate email found by lookup", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().ExistsByEmail(ctx, "ada@example.com").Return(true, nil)

		_, err := deps.service.Create(ctx, req)

		assert.ErrorIs(t, err, employeeerrors.ErrEmailAlreadyRegistered)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("duplicate email caught by unique constraint", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().ExistsByEmail(ctx, gomock.Any()).Return(false, nil)
		deps.repo.EXPECT().
			Create(ctx, gomock.Any()).
			Return(&pgconn.PgError{Code: "23505", ConstraintName: "uq_employee_email"})

		_, err := deps.service.Create(ctx, req)

		assert.ErrorIs(t, err, employeeerrors.ErrEmailAlreadyRegistered)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("repo error -> rollback", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().ExistsByEmail(ctx, gomock.Any()).Return(false, nil)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("db error"))

		_, err := deps.service.Create(ctx, req)

		assert.EqualError(t, err, "db error")
		assert.Equal(t, float64(0), testutil.ToFloat64(deps.metrics.EmployeesCreated))
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("outbox error -> rollback", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().ExistsByEmail(ctx, gomock.Any()).Return(false, nil)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("outbox down"))

		_, err := deps.service.Create(ctx, req)

		assert.Error(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestEmployeeService_List(t *testing.T) {
	q := employee.ListEmployeesQuery{Skip: 0, Limit: 100}
	field := employee.EmployeeListCacheField(0, 100)

	t.Run("hit cache - repository untouched", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()

		cached := []employee.EmployeeResponse{{ID: uuid.NewString(), FullName: "Ada"}}
		payload, _ := json.Marshal(cached)
		deps.redismock.ExpectHGet(employee.EmployeeListCacheKey, field).SetVal(string(payload))

		resp, err := deps.service.List(ctx, q)

		require.NoError(t, err)
		require.Len(t, resp, 1)
		assert.Equal(t, "Ada", resp[0].FullName)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("miss cache - load from repository and store", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()

		created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		rows := []employee.Employee{
			{ID: uuid.New(), FullName: "Ada", Email: "ada@example.com", Department: "Eng", CreatedAt: created},
			{ID: uuid.New(), FullName: "Grace", Email: "grace@example.com", Department: "Eng", CreatedAt: created},
		}
		expected := []employee.EmployeeResponse{
			{ID: rows[0].ID.String(), FullName: "Ada", Email: "ada@example.com", Department: "Eng", CreatedAt: created},
			{ID: rows[1].ID.String(), FullName: "Grace", Email: "grace@example.com", Department: "Eng", CreatedAt: created},
		}
		payload, _ := json.Marshal(expected)

		deps.redismock.ExpectHGet(employee.EmployeeListCacheKey, field).RedisNil()
		deps.repo.EXPECT().FindAll(gomock.Any(), 0, 100).Return(rows, nil)
		deps.redismock.ExpectHSet(employee.EmployeeListCacheKey, field, string(payload)).SetVal(1)
		deps.redismock.ExpectExpire(employee.EmployeeListCacheKey, time.Hour).SetVal(true)

		resp, err := deps.service.List(ctx, q)

		require.NoError(t, err)
		assert.Equal(t, expected, resp)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()

		deps.redismock.ExpectHGet(employee.EmployeeListCacheKey, field).RedisNil()
		deps.repo.EXPECT().FindAll(gomock.Any(), 0, 100).Return(nil, errors.New("database connection lost"))

		resp, err := deps.service.List(ctx, q)

		assert.Nil(t, resp)
		assert.ErrorContains(t, err, "database connection lost")
	})

	t.Run("without redis", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := employeeMock.NewMockRepository(ctrl)
		svc := employee.NewService(nil, repo, nil)

		repo.EXPECT().FindAll(gomock.Any(), 5, 10).Return([]employee.Employee{}, nil)

		resp, err := svc.List(context.Background(), employee.ListEmployeesQuery{Skip: 5, Limit: 10})

		require.NoError(t, err)
		assert.Empty(t, resp)
	})
}

func TestEmployeeService_GetByID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		deps := setupServiceTest(t)
		id := uuid.New()

		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(&employee.Employee{ID: id, FullName: "Ada"}, nil)

		resp, err := deps.service.GetByID(context.Background(), id.String())

		require.NoError(t, err)
		assert.Equal(t, id.String(), resp.ID)
	})

	t.Run("not found", func(t *testing.T) {
		deps := setupServiceTest(t)
		id := uuid.New()

		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.GetByID(context.Background(), id.String())

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.GetByID(context.Background(), "not-a-uuid")

		assert.ErrorIs(t, err, employeeerrors.ErrInvalidEmployeeID)
	})
}

func TestEmployeeService_Delete(t *testing.T) {
	t.Run("success - cascades through repository and queues event", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()
		id := uuid.New()
		existing := &employee.Employee{ID: id}

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(ctx, id).Return(existing, nil)
		deps.repo.EXPECT().Delete(ctx, existing).Return(nil)
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(ctx, matchOutbox(events.EmployeeDeletedType, "")).Return(nil)
		deps.redismock.ExpectDel(employee.EmployeeListCacheKey).SetVal(1)

		err := deps.service.Delete(ctx, id.String())

		require.NoError(t, err)
		assert.Equal(t, float64(1), testutil.ToFloat64(deps.metrics.EmployeesDeleted))
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("not found -> rollback", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()
		id := uuid.New()

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(ctx, id).Return(nil, gorm.ErrRecordNotFound)

		err := deps.service.Delete(ctx, id.String())

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("invalid id never opens a transaction", func(t *testing.T) {
		deps := setupServiceTest(t)

		err := deps.service.Delete(context.Background(), "123")

		assert.ErrorIs(t, err, employeeerrors.ErrInvalidEmployeeID)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}
