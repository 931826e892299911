package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"classline/academy/internal/model"
)

func (s *Store) CreateGroup(ctx context.Context, group model.Group) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO groups (id, organization_id, course_id, name, schedule_text, start_date, end_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, group.ID, group.OrganizationID, group.CourseID, group.Name, group.ScheduleText, group.StartDate, group.EndDate, group.Status, group.CreatedAt, group.UpdatedAt)
	return err
}

// GroupFilter narrows ListGroups; zero-valued fields are ignored.
type GroupFilter struct {
	Search   string
	CourseID string
	Status   model.GroupStatus
}

func (s *Store) ListGroups(ctx context.Context, organizationID string, filter GroupFilter, skip, take int) ([]model.Group, error) {
	query := `
		SELECT id, organization_id, course_id, name, schedule_text, start_date, end_date, status, created_at, updated_at
		FROM groups
		WHERE organization_id = $1
	`
	args := []any{organizationID}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		query += fmt.Sprintf(" AND course_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, skip, take)
	query += fmt.Sprintf(" ORDER BY created_at DESC OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []model.Group{}
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.OrganizationID, &g.CourseID, &g.Name, &g.ScheduleText, &g.StartDate, &g.EndDate, &g.Status, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *Store) GetGroup(ctx context.Context, groupID string) (model.Group, error) {
	var g model.Group
	row := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, course_id, name, schedule_text, start_date, end_date, status, created_at, updated_at
		FROM groups
		WHERE id = $1
	`, groupID)
	err := row.Scan(&g.ID, &g.OrganizationID, &g.CourseID, &g.Name, &g.ScheduleText, &g.StartDate, &g.EndDate, &g.Status, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

// GetGroupInOrg fetches by (id, organization) jointly, so a foreign-tenant
// id reads as absent.
func (s *Store) GetGroupInOrg(ctx context.Context, organizationID, groupID string) (model.Group, error) {
	var g model.Group
	row := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, course_id, name, schedule_text, start_date, end_date, status, created_at, updated_at
		FROM groups
		WHERE id = $1 AND organization_id = $2
	`, groupID, organizationID)
	err := row.Scan(&g.ID, &g.OrganizationID, &g.CourseID, &g.Name, &g.ScheduleText, &g.StartDate, &g.EndDate, &g.Status, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

type GroupUpdate struct {
	CourseID     *string
	Name         *string
	ScheduleText *string
	StartDate    *time.Time
	EndDate      *time.Time
	Status       *model.GroupStatus
}

func (s *Store) UpdateGroup(ctx context.Context, groupID string, upd GroupUpdate) (model.Group, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{groupID}
	if upd.CourseID != nil {
		args = append(args, *upd.CourseID)
		sets = append(sets, fmt.Sprintf("course_id = $%d", len(args)))
	}
	if upd.Name != nil {
		args = append(args, *upd.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if upd.ScheduleText != nil {
		args = append(args, *upd.ScheduleText)
		sets = append(sets, fmt.Sprintf("schedule_text = $%d", len(args)))
	}
	if upd.StartDate != nil {
		args = append(args, *upd.StartDate)
		sets = append(sets, fmt.Sprintf("start_date = $%d", len(args)))
	}
	if upd.EndDate != nil {
		args = append(args, *upd.EndDate)
		sets = append(sets, fmt.Sprintf("end_date = $%d", len(args)))
	}
	if upd.Status != nil {
		args = append(args, *upd.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}

	var g model.Group
	row := s.pool.QueryRow(ctx, `
		UPDATE groups SET `+strings.Join(sets, ", ")+`
		WHERE id = $1
		RETURNING id, organization_id, course_id, name, schedule_text, start_date, end_date, status, created_at, updated_at
	`, args...)
	err := row.Scan(&g.ID, &g.OrganizationID, &g.CourseID, &g.Name, &g.ScheduleText, &g.StartDate, &g.EndDate, &g.Status, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func (s *Store) DeleteGroup(ctx context.Context, organizationID, groupID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM groups
		WHERE id = $1 AND organization_id = $2
	`, groupID, organizationID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CompleteExpiredGroups flips ACTIVE groups whose end date has passed to
// COMPLETED. Used by the background close job.
func (s *Store) CompleteExpiredGroups(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE groups
		SET status = 'COMPLETED', updated_at = NOW()
		WHERE status = 'ACTIVE' AND end_date IS NOT NULL AND end_date < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) CreateTeacherGroup(ctx context.Context, tg model.TeacherGroup) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO teacher_groups (id, organization_id, group_id, teacher_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, tg.ID, tg.OrganizationID, tg.GroupID, tg.TeacherID, tg.Role, tg.CreatedAt)
	return err
}

func (s *Store) GetTeacherGroup(ctx context.Context, groupID, teacherID string) (model.TeacherGroup, error) {
	var tg model.TeacherGroup
	row := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, group_id, teacher_id, role, created_at
		FROM teacher_groups
		WHERE group_id = $1 AND teacher_id = $2
	`, groupID, teacherID)
	err := row.Scan(&tg.ID, &tg.OrganizationID, &tg.GroupID, &tg.TeacherID, &tg.Role, &tg.CreatedAt)
	return tg, err
}

func (s *Store) DeleteTeacherGroup(ctx context.Context, organizationID, groupID, teacherID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM teacher_groups
		WHERE organization_id = $1 AND group_id = $2 AND teacher_id = $3
	`, organizationID, groupID, teacherID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type GroupTeacher struct {
	TeacherID      string
	FullName       string
	Phone          string
	Specialization *string
	Role           model.TeacherGroupRole
	AssignedAt     time.Time
}

func (s *Store) ListGroupTeachers(ctx context.Context, groupID string) ([]GroupTeacher, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.full_name, t.phone, t.specialization, tg.role, tg.created_at
		FROM teacher_groups tg
		JOIN teachers t ON t.id = tg.teacher_id
		WHERE tg.group_id = $1
		ORDER BY tg.created_at DESC
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teachers := []GroupTeacher{}
	for rows.Next() {
		var gt GroupTeacher
		if err := rows.Scan(&gt.TeacherID, &gt.FullName, &gt.Phone, &gt.Specialization, &gt.Role, &gt.AssignedAt); err != nil {
			return nil, err
		}
		teachers = append(teachers, gt)
	}
	return teachers, rows.Err()
}

func (s *Store) CreateEnrollment(ctx context.Context, enr model.Enrollment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO enrollments (id, organization_id, group_id, student_id, joined_at, left_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, enr.ID, enr.OrganizationID, enr.GroupID, enr.StudentID, enr.JoinedAt, enr.LeftAt)
	return err
}

func (s *Store) GetActiveEnrollment(ctx context.Context, groupID, studentID string) (model.Enrollment, error) {
	var enr model.Enrollment
	row := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, group_id, student_id, joined_at, left_at
		FROM enrollments
		WHERE group_id = $1 AND student_id = $2 AND left_at IS NULL
	`, groupID, studentID)
	err := row.Scan(&enr.ID, &enr.OrganizationID, &enr.GroupID, &enr.StudentID, &enr.JoinedAt, &enr.LeftAt)
	return enr, err
}

// CloseEnrollment sets left_at on an open enrollment. The row itself is never
// deleted so attendance history keeps a valid trail.
func (s *Store) CloseEnrollment(ctx context.Context, enrollmentID string, leftAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE enrollments
		SET left_at = $1
		WHERE id = $2 AND left_at IS NULL
	`, leftAt, enrollmentID)
	return err
}

type GroupStudent struct {
	StudentID string
	FullName  string
	Status    model.StudentStatus
	JoinedAt  time.Time
}

func (s *Store) ListGroupStudents(ctx context.Context, groupID string) ([]GroupStudent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT st.id, st.full_name, st.status, e.joined_at
		FROM enrollments e
		JOIN students st ON st.id = e.student_id
		WHERE e.group_id = $1 AND e.left_at IS NULL
		ORDER BY e.joined_at DESC
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []GroupStudent{}
	for rows.Next() {
		var gs GroupStudent
		if err := rows.Scan(&gs.StudentID, &gs.FullName, &gs.Status, &gs.JoinedAt); err != nil {
			return nil, err
		}
		students = append(students, gs)
	}
	return students, rows.Err()
}

// ActiveEnrolledStudentIDs filters studentIDs down to the ones holding an
// open enrollment in the group.
func (s *Store) ActiveEnrolledStudentIDs(ctx context.Context, groupID string, studentIDs []string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT student_id
		FROM enrollments
		WHERE group_id = $1 AND student_id = ANY($2::uuid[]) AND left_at IS NULL
	`, groupID, studentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
