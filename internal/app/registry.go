package app

import (
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/attendance"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/department"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/employee"
	"github.com/ARPITJ0SHI/Attendance-Manager/internal/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func registerModules(router gin.IRouter, deps Dependencies) {
	// --- Repositories ---
	employeeRepo := employee.NewRepository(deps.DB)
	attendanceRepo := attendance.NewRepository(deps.DB)
	departmentRepo := department.NewRepository(deps.DB)

	// --- Services ---
	employeeService := employee.NewServiceWithOutbox(deps.SQL, employeeRepo, deps.Outbox, deps.Redis, deps.Metrics, deps.Logger)
	attendanceService := attendance.NewServiceWithOutbox(deps.SQL, attendanceRepo, deps.Outbox, deps.Metrics, deps.Logger)
	departmentService := department.NewService(departmentRepo, deps.Logger)

	// --- Handlers ---
	employeeHandler := employee.NewHandler(employeeService, deps.Logger)
	attendanceHandler := attendance.NewHandler(attendanceService, deps.Logger)
	departmentHandler := department.NewHandler(departmentService)

	// --- Write guards ---
	var writeGuards []gin.HandlerFunc
	if deps.Config.RateLimitRPS > 0 {
		writeGuards = append(writeGuards, middleware.RateLimitByIP(rate.Limit(deps.Config.RateLimitRPS), deps.Config.RateLimitBurst))
	}
	if deps.Redis != nil {
		writeGuards = append(writeGuards, middleware.Idempotency(deps.Redis, deps.Logger))
	}

	// --- Routes Registration ---
	employee.RegisterRoutes(router, employeeHandler, writeGuards...)
	attendance.RegisterRoutes(router, attendanceHandler, writeGuards...)
	department.RegisterRoutes(router, departmentHandler)
}
