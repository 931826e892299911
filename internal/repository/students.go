package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"classline/academy/internal/model"
)

func (s *Store) CreateStudent(ctx context.Context, student model.Student) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO students (id, organization_id, full_name, birth_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, student.ID, student.OrganizationID, student.FullName, student.BirthDate, student.Status, student.CreatedAt, student.UpdatedAt)
	return err
}

func (s *Store) ListStudents(ctx context.Context, organizationID, search string, skip, take int) ([]model.Student, error) {
	query := `
		SELECT id, organization_id, full_name, birth_date, status, created_at, updated_at
		FROM students
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

	students := []model.Student{}
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.OrganizationID, &st.FullName, &st.BirthDate, &st.Status, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

func (s *Store) GetStudent(ctx context.Context, studentID string) (model.Student, error) {
	var st model.Student
	row := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, full_name, birth_date, status, created_at, updated_at
		FROM students
		WHERE id = $1
	`, studentID)
	err := row.Scan(&st.ID, &st.OrganizationID, &st.FullName, &st.BirthDate, &st.Status, &st.CreatedAt, &st.UpdatedAt)
	return st, err
}

type StudentUpdate struct {
	FullName  *string
	BirthDate *time.Time
	Status    *model.StudentStatus
}

// UpdateStudent applies only the supplied fields. It filters by id and
// organization together, so an id owned by another tenant scans as no rows.
func (s *Store) UpdateStudent(ctx context.Context, organizationID, studentID string, upd StudentUpdate) (model.Student, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{studentID, organizationID}
	if upd.FullName != nil {
		args = append(args, *upd.FullName)
		sets = append(sets, fmt.Sprintf("full_name = $%d", len(args)))
	}
	if upd.BirthDate != nil {
		args = append(args, *upd.BirthDate)
		sets = append(sets, fmt.Sprintf("birth_date = $%d", len(args)))
	}
	if upd.Status != nil {
		args = append(args, *upd.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}

	var st model.Student
	row := s.pool.QueryRow(ctx, `
		UPDATE students SET `+strings.Join(sets, ", ")+`
		WHERE id = $1 AND organization_id = $2
		RETURNING id, organization_id, full_name, birth_date, status, created_at, updated_at
	`, args...)
	err := row.Scan(&st.ID, &st.OrganizationID, &st.FullName, &st.BirthDate, &st.Status, &st.CreatedAt, &st.UpdatedAt)
	return st, err
}

func (s *Store) DeleteStudent(ctx context.Context, organizationID, studentID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM students
		WHERE id = $1 AND organization_id = $2
	`, studentID, organizationID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type StudentGroup struct {
	GroupID    string
	GroupName  string
	CourseName string
	Status     model.GroupStatus
	JoinedAt   time.Time
}

// ListStudentGroups returns the groups the student is currently enrolled in.
func (s *Store) ListStudentGroups(ctx context.Context, studentID string) ([]StudentGroup, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT g.id, g.name, c.name, g.status, e.joined_at
		FROM enrollments e
		JOIN groups g ON g.id = e.group_id
		JOIN courses c ON c.id = g.course_id
		WHERE e.student_id = $1 AND e.left_at IS NULL
		ORDER BY e.joined_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []StudentGroup{}
	for rows.Next() {
		var sg StudentGroup
		if err := rows.Scan(&sg.GroupID, &sg.GroupName, &sg.CourseName, &sg.Status, &sg.JoinedAt); err != nil {
			return nil, err
		}
		groups = append(groups, sg)
	}
	return groups, rows.Err()
}
