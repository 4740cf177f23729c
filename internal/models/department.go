package models

// Department is an owning academic unit. Courses, faculty, and venue pools
// hang off the department code.
type Department struct {
	Code string `db:"department_code" json:"department_code"`
	Name string `db:"department_name" json:"department_name"`
}
