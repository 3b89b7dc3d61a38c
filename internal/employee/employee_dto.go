package employee

import "time"

type CreateEmployeeRequest struct {
	FullName   string `json:"full_name" binding:"required,notblank,max=100"`
	Email      string `json:"email" binding:"required,email,max=150"`
	Department string `json:"department" binding:"required,notblank,max=50"`
}

type ListEmployeesQuery struct {
	Skip  int `form:"skip,default=0" binding:"min=0"`
	Limit int `form:"limit,default=100" binding:"min=1,max=1000"`
}

type EmployeeResponse struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"created_at"`
}
