package attendance

import "time"

type CreateAttendanceRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	Date       string `json:"date" binding:"required,datetime=2006-01-02"`
	Status     string `json:"status" binding:"required,notblank,max=10"`
}

type ListAttendanceQuery struct {
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	Date       string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	StartDate  string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate    string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Skip       int    `form:"skip,default=0" binding:"min=0"`
	Limit      int    `form:"limit,default=1000" binding:"min=1,max=1000"`
}

type AttendanceResponse struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Date       string    `json:"date"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type SummaryQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// SummaryResponse counts one day's attendance. Statuses are lower-cased.
type SummaryResponse struct {
	Date           string           `json:"date"`
	TotalEmployees int64            `json:"total_employees"`
	Marked         int64            `json:"marked"`
	Unmarked       int64            `json:"unmarked"`
	ByStatus       map[string]int64 `json:"by_status"`
}
