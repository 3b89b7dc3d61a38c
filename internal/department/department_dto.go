package department

type DepartmentResponse struct {
	Name          string `json:"name"`
	EmployeeCount int64  `json:"employee_count"`
}
