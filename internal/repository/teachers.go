package repository

import (
	"context"
	"fmt"
	"strings"

	"classline/academy/internal/model"
)

func (s *Store) CreateTeacher(ctx context.Context, teacher model.Teacher) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO teachers (id, organization_id, full_name, phone, specialization, is_active, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, teacher.ID, teacher.OrganizationID, teacher.FullName, teacher.Phone, teacher.Specialization, teacher.IsActive, teacher.Note, teacher.CreatedAt, teacher.UpdatedAt)
	return err
}

func (s *Store) ListTeachers(ctx context.Context, organizationID, search string, skip, take int) ([]model.Teacher, error) {
	query := `
		SELECT id, organization_id, full_name, phone, specialization, is_active, note, created_at, updated_at
		FROM teachers
		WHERE organization_id = $1
	`
	args := []any{organizationID}
	if search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND full_name ILIKE $%d", len(args))
	}
	args = append(args, skip, take)
	query += fmt.Sprintf(" ORDER BY created_at DESC OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teachers := []model.Teacher{}
	for rows.Next() {
		var t model.Teacher
		if err := rows.Scan(&t.ID, &t.OrganizationID, &t.FullName, &t.Phone, &t.Specialization, &t.IsActive, &t.Note, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		teachers = append(teachers, t)
	}
	return teachers, rows.Err()
}

func (s *Store) GetTeacher(ctx context.Context, teacherID string) (model.Teacher, error) {
	var t model.Teacher
	row := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, full_name, phone, specialization, is_active, note, created_at, updated_at
		FROM teachers
		WHERE id = $1
	`, teacherID)
	err := row.Scan(&t.ID, &t.OrganizationID, &t.FullName, &t.Phone, &t.Specialization, &t.IsActive, &t.Note, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// GetTeacherInOrg fetches by (id, organization) jointly, so a foreign-tenant
// id reads as absent.
func (s *Store) GetTeacherInOrg(ctx context.Context, organizationID, teacherID string) (model.Teacher, error) {
	var t model.Teacher
	row := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, full_name, phone, specialization, is_active, note, created_at, updated_at
		FROM teachers
		WHERE id = $1 AND organization_id = $2
	`, teacherID, organizationID)
	err := row.Scan(&t.ID, &t.OrganizationID, &t.FullName, &t.Phone, &t.Specialization, &t.IsActive, &t.Note, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

type TeacherUpdate struct {
	FullName       *string
	Phone          *string
	Specialization *string
	IsActive       *bool
	Note           *string
}

func (s *Store) UpdateTeacher(ctx context.Context, organizationID, teacherID string, upd TeacherUpdate) (model.Teacher, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{teacherID, organizationID}
	if upd.FullName != nil {
		args = append(args, *upd.FullName)
		sets = append(sets, fmt.Sprintf("full_name = $%d", len(args)))
	}
	if upd.Phone != nil {
		args = append(args, *upd.Phone)
		sets = append(sets, fmt.Sprintf("phone = $%d", len(args)))
	}
	if upd.Specialization != nil {
		args = append(args, *upd.Specialization)
		sets = append(sets, fmt.Sprintf("specialization = $%d", len(args)))
	}
	if upd.IsActive != nil {
		args = append(args, *upd.IsActive)
		sets = append(sets, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if upd.Note != nil {
		args = append(args, *upd.Note)
		sets = append(sets, fmt.Sprintf("note = $%d", len(args)))
	}

	var t model.Teacher
	row := s.pool.QueryRow(ctx, `
		UPDATE teachers SET `+strings.Join(sets, ", ")+`
		WHERE id = $1 AND organization_id = $2
		RETURNING id, organization_id, full_name, phone, specialization, is_active, note, created_at, updated_at
	`, args...)
	err := row.Scan(&t.ID, &t.OrganizationID, &t.FullName, &t.Phone, &t.Specialization, &t.IsActive, &t.Note, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *Store) DeleteTeacher(ctx context.Context, organizationID, teacherID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM teachers
		WHERE id = $1 AND organization_id = $2
	`, teacherID, organizationID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
