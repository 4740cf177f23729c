package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bitcampus/timetable-api/internal/models"
)

// DepartmentRepository provides read access to the department master table.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository creates a new department repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns all departments ordered by code.
func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	const query = `SELECT department_code, department_name FROM department_master ORDER BY department_code ASC`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// FindByCode loads a department by code.
func (r *DepartmentRepository) FindByCode(ctx context.Context, code string) (*models.Department, error) {
	const query = `SELECT department_code, department_name FROM department_master WHERE department_code = $1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, code); err != nil {
		return nil, err
	}
	return &department, nil
}
