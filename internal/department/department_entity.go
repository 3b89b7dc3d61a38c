package department

// Department is a read model: departments are free text on employees, so a
// department exists while at least one employee names it.
type Department struct {
	Name          string `gorm:"column:name"`
	EmployeeCount int64  `gorm:"column:employee_count"`
}
