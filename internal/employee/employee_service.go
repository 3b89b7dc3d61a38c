package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	employeeerrors "github.com/ARPITJ0SHI/Attendance-Manager/internal/employee/errors"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/events"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/messaging/kafka"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/contextutil"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/shared/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	EmployeeListCacheKey = "employees:list"
	employeeListCacheTTL = time.Hour
)

// EmployeeListCacheField is the hash field holding one cached page.
func EmployeeListCacheField(skip, limit int) string {
	return fmt.Sprintf("%d:%d", skip, limit)
}

type Service interface {
	Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	List(ctx context.Context, q ListEmployeesQuery) ([]EmployeeResponse, error)
	GetByID(ctx context.Context, id string) (EmployeeResponse, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	db      *sql.DB
	repo    Repository
	outbox  kafka.OutboxRepository
	rdb     *redis.Client
	sf      *singleflight.Group
	metrics *metrics.Metrics
	now     func() time.Time
	logger  *zap.Logger
}

func NewService(db *sql.DB, repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, nil, rdb, nil, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	outboxRepo kafka.OutboxRepository,
	rdb *redis.Client,
	m *metrics.Metrics,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		db:      db,
		repo:    repo,
		outbox:  outboxRepo,
		rdb:     rdb,
		sf:      &singleflight.Group{},
		metrics: m,
		now:     time.Now,
		logger:  l,
	}
}

func (s *service) Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	email := normalizeEmail(req.Email)
	s.logger.Debug("create employee requested",
		zap.String("request_id", rid),
		zap.String("email", email),
		zap.String("department", req.Department),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	// Check-then-insert is not atomic; uq_employee_email catches the race.
	exists, err := qtx.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error("create employee email lookup failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	if exists {
		s.logger.Warn("create employee email already registered",
			zap.String("request_id", rid),
			zap.String("email", email),
		)
		return EmployeeResponse{}, employeeerrors.ErrEmailAlreadyRegistered
	}

	empl := &Employee{
		ID:         uuid.New(),
		FullName:   strings.TrimSpace(req.FullName),
		Email:      email,
		Department: strings.TrimSpace(req.Department),
		CreatedAt:  s.now().UTC(),
	}

	if err := qtx.Create(ctx, empl); err != nil {
		s.logger.Error("create employee persist failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if s.outbox != nil {
		event, err := kafka.NewOutboxEvent(rid, "employee", empl.ID.String(), events.EmployeeCreatedType, events.EmployeeLifecycleTopic,
			events.EmployeeCreatedEvent{
				EventType:  events.EmployeeCreatedType,
				RequestID:  rid,
				EmployeeID: empl.ID.String(),
				Email:      empl.Email,
				Department: empl.Department,
				OccurredAt: empl.CreatedAt,
			})
		if err != nil {
			s.logger.Error("create employee marshal event failed", zap.String("request_id", rid), zap.Error(err))
			return EmployeeResponse{}, err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
			s.logger.Error("create employee outbox persist failed",
				zap.String("request_id", rid),
				zap.String("employee_id", empl.ID.String()),
				zap.Error(err),
			)
			return EmployeeResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create employee commit failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	s.invalidateListCache(ctx)
	s.metrics.IncrementEmployeesCreated()

	s.logger.Info("create employee success",
		zap.String("request_id", rid),
		zap.String("employee_id", empl.ID.String()),
	)

	return mapToResponse(*empl), nil
}

func (s *service) List(ctx context.Context, q ListEmployeesQuery) ([]EmployeeResponse, error) {
	field := EmployeeListCacheField(q.Skip, q.Limit)
	s.logger.Debug("list employees requested", zap.Int("skip", q.Skip), zap.Int("limit", q.Limit))

	if s.rdb != nil {
		if cached, err := s.rdb.HGet(ctx, EmployeeListCacheKey, field).Result(); err == nil {
			var resp []EmployeeResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(field, func() (interface{}, error) {
		empls, err := s.repo.FindAll(ctx, q.Skip, q.Limit)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := mapToListResponse(empls)

		if s.rdb != nil {
			if payload, err := json.Marshal(resp); err == nil {
				if err := s.rdb.HSet(ctx, EmployeeListCacheKey, field, string(payload)).Err(); err != nil {
					s.logger.Warn("cache employee list failed", zap.Error(err))
				} else {
					s.rdb.Expire(ctx, EmployeeListCacheKey, employeeListCacheTTL)
				}
			}
		}

		return resp, nil
	})
	if err != nil {
		s.logger.Error("list employees failed", zap.Error(err))
		return nil, err
	}

	return v.([]EmployeeResponse), nil
}

func (s *service) GetByID(ctx context.Context, id string) (EmployeeResponse, error) {
	employeeID, err := uuid.Parse(id)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	empl, err := s.repo.FindByID(ctx, employeeID)
	if err != nil {
		s.logger.Debug("get employee by id failed", zap.String("employee_id", id), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	return mapToResponse(*empl), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("delete employee requested",
		zap.String("request_id", rid),
		zap.String("employee_id", id),
	)

	employeeID, err := uuid.Parse(id)
	if err != nil {
		return employeeerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("delete employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	empl, err := qtx.FindByID(ctx, employeeID)
	if err != nil {
		s.logger.Warn("delete employee lookup failed", zap.String("employee_id", id), zap.Error(err))
		return mapRepositoryError(err)
	}

	if err := qtx.Delete(ctx, empl); err != nil {
		s.logger.Error("delete employee failed", zap.String("employee_id", id), zap.Error(err))
		return mapRepositoryError(err)
	}

	if s.outbox != nil {
		event, err := kafka.NewOutboxEvent(rid, "employee", id, events.EmployeeDeletedType, events.EmployeeLifecycleTopic,
			events.EmployeeDeletedEvent{
				EventType:  events.EmployeeDeletedType,
				RequestID:  rid,
				EmployeeID: id,
				OccurredAt: s.now().UTC(),
			})
		if err != nil {
			return err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
			s.logger.Error("delete employee outbox persist failed", zap.String("employee_id", id), zap.Error(err))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("delete employee commit failed", zap.String("employee_id", id), zap.Error(err))
		return err
	}

	s.invalidateListCache(ctx)
	s.metrics.IncrementEmployeesDeleted()

	s.logger.Info("delete employee success",
		zap.String("request_id", rid),
		zap.String("employee_id", id),
	)
	return nil
}

func (s *service) invalidateListCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, EmployeeListCacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate employee list cache",
			zap.Error(err),
			zap.String("key", EmployeeListCacheKey),
		)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapToResponse(empl Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:         empl.ID.String(),
		FullName:   empl.FullName,
		Email:      empl.Email,
		Department: empl.Department,
		CreatedAt:  empl.CreatedAt,
	}
}

func mapToListResponse(empls []Employee) []EmployeeResponse {
	res := make([]EmployeeResponse, len(empls))
	for i, e := range empls {
		res[i] = mapToResponse(e)
	}
	return res
}
