package repository

import (
	"context"
	"fmt"
	"strings"

	"classline/academy/internal/model"
)

func (s *Store) CreateCourse(ctx context.Context, course model.Course) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO courses (id, organization_id, name, description, duration_months, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, course.ID, course.OrganizationID, course.Name, course.Description, course.DurationMonths, course.IsActive, course.CreatedAt, course.UpdatedAt)
	return err
}

func (s *Store) ListCourses(ctx context.Context, organizationID, search string, skip, take int) ([]model.Course, error) {
	query := `
		SELECT id, organization_id, name, description, duration_months, is_active, created_at, updated_at
		FROM courses
		WHERE organization_id = $1
	`
	args := []any{organizationID}
	if search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	args = append(args, skip, take)
	query += fmt.Sprintf(" ORDER BY created_at DESC OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Description, &c.DurationMonths, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (s *Store) GetCourse(ctx context.Context, courseID string) (model.Course, error) {
	var c model.Course
	row := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, name, description, duration_months, is_active, created_at, updated_at
		FROM courses
		WHERE id = $1
	`, courseID)
	err := row.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Description, &c.DurationMonths, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetCourseInOrg fetches by (id, organization) jointly, so a foreign-tenant
// id reads as absent.
func (s *Store) GetCourseInOrg(ctx context.Context, organizationID, courseID string) (model.Course, error) {
	var c model.Course
	row := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, name, description, duration_months, is_active, created_at, updated_at
		FROM courses
		WHERE id = $1 AND organization_id = $2
	`, courseID, organizationID)
	err := row.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Description, &c.DurationMonths, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

type CourseUpdate struct {
	Name           *string
	Description    *string
	DurationMonths *int32
	IsActive       *bool
}

func (s *Store) UpdateCourse(ctx context.Context, organizationID, courseID string, upd CourseUpdate) (model.Course, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{courseID, organizationID}
	if upd.Name != nil {
		args = append(args, *upd.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if upd.Description != nil {
		args = append(args, *upd.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if upd.DurationMonths != nil {
		args = append(args, *upd.DurationMonths)
		sets = append(sets, fmt.Sprintf("duration_months = $%d", len(args)))
	}
	if upd.IsActive != nil {
		args = append(args, *upd.IsActive)
		sets = append(sets, fmt.Sprintf("is_active = $%d", len(args)))
	}

	var c model.Course
	row := s.pool.QueryRow(ctx, `
		UPDATE courses SET `+strings.Join(sets, ", ")+`
		WHERE id = $1 AND organization_id = $2
		RETURNING id, organization_id, name, description, duration_months, is_active, created_at, updated_at
	`, args...)
	err := row.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Description, &c.DurationMonths, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Store) DeleteCourse(ctx context.Context, organizationID, courseID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM courses
		WHERE id = $1 AND organization_id = $2
	`, courseID, organizationID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
