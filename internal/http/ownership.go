package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"classline/academy/internal/model"
)

// isUUID screens path and body ids before they reach a uuid-typed query
// parameter, so a malformed id reads as absent instead of a query error.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// The ensure helpers fetch an entity by id and compare its organization to
// the caller's. An id that exists nowhere is not_found; an id owned by a
// different organization is a conflict, so a tenant probing foreign ids can
// tell the two apart in audit logs but never reads the row itself.

func (s *Server) ensureStudent(ctx context.Context, organizationID, studentID string) (model.Student, int, string) {
	if !isUUID(studentID) {
		return model.Student{}, http.StatusNotFound, "student_not_found"
	}
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Student{}, http.StatusNotFound, "student_not_found"
		}
		return model.Student{}, http.StatusInternalServerError, "server_error"
	}
	if student.OrganizationID != organizationID {
		return model.Student{}, http.StatusConflict, "student_wrong_organization"
	}
	return student, 0, ""
}

func (s *Server) ensureTeacher(ctx context.Context, organizationID, teacherID string) (model.Teacher, int, string) {
	if !isUUID(teacherID) {
		return model.Teacher{}, http.StatusNotFound, "teacher_not_found"
	}
	teacher, err := s.store.GetTeacher(ctx, teacherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Teacher{}, http.StatusNotFound, "teacher_not_found"
		}
		return model.Teacher{}, http.StatusInternalServerError, "server_error"
	}
	if teacher.OrganizationID != organizationID {
		return model.Teacher{}, http.StatusConflict, "teacher_wrong_organization"
	}
	return teacher, 0, ""
}

func (s *Server) ensureCourse(ctx context.Context, organizationID, courseID string) (model.Course, int, string) {
	if !isUUID(courseID) {
		return model.Course{}, http.StatusNotFound, "course_not_found"
	}
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Course{}, http.StatusNotFound, "course_not_found"
		}
		return model.Course{}, http.StatusInternalServerError, "server_error"
	}
	if course.OrganizationID != organizationID {
		return model.Course{}, http.StatusConflict, "course_wrong_organization"
	}
	return course, 0, ""
}

func (s *Server) ensureGroup(ctx context.Context, organizationID, groupID string) (model.Group, int, string) {
	if !isUUID(groupID) {
		return model.Group{}, http.StatusNotFound, "group_not_found"
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Group{}, http.StatusNotFound, "group_not_found"
		}
		return model.Group{}, http.StatusInternalServerError, "server_error"
	}
	if group.OrganizationID != organizationID {
		return model.Group{}, http.StatusConflict, "group_wrong_organization"
	}
	return group, 0, ""
}

func (s *Server) ensureLesson(ctx context.Context, organizationID, lessonID string) (model.LessonSession, int, string) {
	if !isUUID(lessonID) {
		return model.LessonSession{}, http.StatusNotFound, "lesson_not_found"
	}
	lesson, err := s.store.GetLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.LessonSession{}, http.StatusNotFound, "lesson_not_found"
		}
		return model.LessonSession{}, http.StatusInternalServerError, "server_error"
	}
	if lesson.OrganizationID != organizationID {
		return model.LessonSession{}, http.StatusConflict, "lesson_wrong_organization"
	}
	return lesson, 0, ""
}
