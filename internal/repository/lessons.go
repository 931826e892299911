package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"classline/academy/internal/model"
)

func (s *Store) CreateLesson(ctx context.Context, lesson model.LessonSession) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO lesson_sessions (id, organization_id, group_id, teacher_id, date, topic, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, lesson.ID, lesson.OrganizationID, lesson.GroupID, lesson.TeacherID, lesson.Date, lesson.Topic, lesson.Notes, lesson.Status, lesson.CreatedAt, lesson.UpdatedAt)
	return err
}

func (s *Store) GetLesson(ctx context.Context, lessonID string) (model.LessonSession, error) {
	var l model.LessonSession
	row := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, group_id, teacher_id, date, topic, notes, status, created_at, updated_at
		FROM lesson_sessions
		WHERE id = $1
	`, lessonID)
	err := row.Scan(&l.ID, &l.OrganizationID, &l.GroupID, &l.TeacherID, &l.Date, &l.Topic, &l.Notes, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (s *Store) ListLessons(ctx context.Context, organizationID, groupID string, skip, take int) ([]model.LessonSession, error) {
	query := `
		SELECT id, organization_id, group_id, teacher_id, date, topic, notes, status, created_at, updated_at
		FROM lesson_sessions
		WHERE organization_id = $1
	`
	args := []any{organizationID}
	if groupID != "" {
		args = append(args, groupID)
		query += fmt.Sprintf(" AND group_id = $%d", len(args))
	}
	args = append(args, skip, take)
	query += fmt.Sprintf(" ORDER BY date DESC OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lessons := []model.LessonSession{}
	for rows.Next() {
		var l model.LessonSession
		if err := rows.Scan(&l.ID, &l.OrganizationID, &l.GroupID, &l.TeacherID, &l.Date, &l.Topic, &l.Notes, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// MarkedStudentIDs returns which of studentIDs already have an attendance row
// for the lesson.
func (s *Store) MarkedStudentIDs(ctx context.Context, lessonID string, studentIDs []string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT student_id
		FROM attendance
		WHERE lesson_session_id = $1 AND student_id = ANY($2::uuid[])
	`, lessonID, studentIDs)
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

// CreateAttendanceBatch inserts every row inside one transaction. A unique
// constraint on (lesson_session_id, student_id) aborts the whole batch if a
// concurrent writer slipped a duplicate in after validation.
func (s *Store) CreateAttendanceBatch(ctx context.Context, marks []model.Attendance) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		for _, m := range marks {
			_, err := tx.Exec(ctx, `
				INSERT INTO attendance (id, organization_id, lesson_session_id, student_id, status, comment, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, m.ID, m.OrganizationID, m.LessonSessionID, m.StudentID, m.Status, m.Comment, m.CreatedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

type AttendanceMark struct {
	model.Attendance
	StudentName string
}

func (s *Store) ListLessonAttendance(ctx context.Context, lessonID string) ([]AttendanceMark, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.organization_id, a.lesson_session_id, a.student_id, a.status, a.comment, a.created_at, st.full_name
		FROM attendance a
		JOIN students st ON st.id = a.student_id
		WHERE a.lesson_session_id = $1
		ORDER BY a.created_at ASC, a.id ASC
	`, lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	marks := []AttendanceMark{}
	for rows.Next() {
		var m AttendanceMark
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.LessonSessionID, &m.StudentID, &m.Status, &m.Comment, &m.CreatedAt, &m.StudentName); err != nil {
			return nil, err
		}
		marks = append(marks, m)
	}
	return marks, rows.Err()
}
