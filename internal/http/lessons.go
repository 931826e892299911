package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"classline/academy/internal/model"
	"classline/academy/internal/repository"
)

type createLessonRequest struct {
	GroupID   string  `json:"groupId"`
	TeacherID string  `json:"teacherId"`
	Date      string  `json:"date"`
	Topic     *string `json:"topic,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	Status    *string `json:"status,omitempty"`
}

type lessonResponse struct {
	ID        string  `json:"id"`
	GroupID   string  `json:"groupId"`
	TeacherID string  `json:"teacherId"`
	Date      string  `json:"date"`
	Topic     *string `json:"topic,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"createdAt"`
}

func mapLessonResponse(l model.LessonSession) lessonResponse {
	return lessonResponse{
		ID:        l.ID,
		GroupID:   l.GroupID,
		TeacherID: l.TeacherID,
		Date:      l.Date.UTC().Format(time.RFC3339),
		Topic:     l.Topic,
		Notes:     l.Notes,
		Status:    string(l.Status),
		CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func normalizeLessonStatus(raw string) (model.LessonStatus, bool) {
	switch model.LessonStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case model.LessonStatusPlanned:
		return model.LessonStatusPlanned, true
	case model.LessonStatusCompleted:
		return model.LessonStatusCompleted, true
	case model.LessonStatusCancelled:
		return model.LessonStatusCancelled, true
	default:
		return "", false
	}
}

func normalizeAttendanceStatus(raw string) (model.AttendanceStatus, bool) {
	switch model.AttendanceStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case model.AttendanceStatusPresent:
		return model.AttendanceStatusPresent, true
	case model.AttendanceStatusAbsent:
		return model.AttendanceStatusAbsent, true
	case model.AttendanceStatusLate:
		return model.AttendanceStatusLate, true
	case model.AttendanceStatusExcused:
		return model.AttendanceStatusExcused, true
	default:
		return "", false
	}
}

func (s *Server) handleCreateLesson(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	var req createLessonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.GroupID == "" || req.TeacherID == "" || req.Date == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}

	lessonStatus := model.LessonStatusPlanned
	if req.Status != nil {
		parsed, ok := normalizeLessonStatus(*req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
		lessonStatus = parsed
	}

	if _, status, errCode := s.ensureGroup(r.Context(), claims.OrganizationID, req.GroupID); errCode != "" {
		writeError(w, status, errCode)
		return
	}
	if _, status, errCode := s.ensureTeacher(r.Context(), claims.OrganizationID, req.TeacherID); errCode != "" {
		writeError(w, status, errCode)
		return
	}

	// Lessons only ever reference a teacher currently assigned to the group.
	if _, err := s.store.GetTeacherGroup(r.Context(), req.GroupID, req.TeacherID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusConflict, "teacher_not_assigned")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	now := time.Now().UTC()
	lesson := model.LessonSession{
		ID:             uuid.NewString(),
		OrganizationID: claims.OrganizationID,
		GroupID:        req.GroupID,
		TeacherID:      req.TeacherID,
		Date:           date,
		Topic:          req.Topic,
		Notes:          req.Notes,
		Status:         lessonStatus,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateLesson(r.Context(), lesson); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusCreated, mapLessonResponse(lesson))
}

func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	skip, take := parsePagination(r)
	groupID := strings.TrimSpace(r.URL.Query().Get("groupId"))
	if groupID != "" {
		if _, status, errCode := s.ensureGroup(r.Context(), claims.OrganizationID, groupID); errCode != "" {
			writeError(w, status, errCode)
			return
		}
	}

	lessons, err := s.store.ListLessons(r.Context(), claims.OrganizationID, groupID, skip, take)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]lessonResponse, 0, len(lessons))
	for _, l := range lessons {
		resp = append(resp, mapLessonResponse(l))
	}
	writeJSON(w, http.StatusOK, resp)
}

type attendanceItem struct {
	StudentID string  `json:"studentId"`
	Status    string  `json:"status"`
	Comment   *string `json:"comment,omitempty"`
}

type addAttendanceRequest struct {
	Items []attendanceItem `json:"items"`
}

type attendanceResponse struct {
	ID          string  `json:"id"`
	LessonID    string  `json:"lessonId"`
	StudentID   string  `json:"studentId"`
	StudentName string  `json:"studentName,omitempty"`
	Status      string  `json:"status"`
	Comment     *string `json:"comment,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

// duplicateStudentID reports whether any studentId repeats in the batch.
func duplicateStudentID(items []attendanceItem) bool {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.StudentID]; ok {
			return true
		}
		seen[item.StudentID] = struct{}{}
	}
	return false
}

// handleAddAttendance validates the whole batch before writing anything.
// Order matters: empty batch, lesson ownership, in-batch duplicates, student
// ownership, active enrollment, pre-existing marks. Any failure rejects the
// entire submission so a lesson never ends up with a partial sheet.
func (s *Server) handleAddAttendance(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	lessonID := chi.URLParam(r, "lessonId")

	var req addAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "empty_items")
		return
	}

	lesson, status, errCode := s.ensureLesson(r.Context(), claims.OrganizationID, lessonID)
	if errCode != "" {
		writeError(w, status, errCode)
		return
	}

	if duplicateStudentID(req.Items) {
		writeError(w, http.StatusBadRequest, "duplicate_student_id")
		return
	}

	statuses := make([]model.AttendanceStatus, len(req.Items))
	for i, item := range req.Items {
		if item.StudentID == "" {
			writeError(w, http.StatusBadRequest, "missing_student_id")
			return
		}
		parsed, ok := normalizeAttendanceStatus(item.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
		statuses[i] = parsed
	}

	studentIDs := make([]string, len(req.Items))
	studentNames := make(map[string]string, len(req.Items))
	for i, item := range req.Items {
		student, status, errCode := s.ensureStudent(r.Context(), claims.OrganizationID, item.StudentID)
		if errCode != "" {
			writeError(w, status, errCode)
			return
		}
		studentIDs[i] = item.StudentID
		studentNames[item.StudentID] = student.FullName
	}

	enrolled, err := s.store.ActiveEnrolledStudentIDs(r.Context(), lesson.GroupID, studentIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	enrolledSet := make(map[string]struct{}, len(enrolled))
	for _, id := range enrolled {
		enrolledSet[id] = struct{}{}
	}
	for _, id := range studentIDs {
		if _, ok := enrolledSet[id]; !ok {
			writeError(w, http.StatusConflict, "student_not_enrolled")
			return
		}
	}

	marked, err := s.store.MarkedStudentIDs(r.Context(), lesson.ID, studentIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if len(marked) > 0 {
		writeError(w, http.StatusConflict, "attendance_already_exists")
		return
	}

	now := time.Now().UTC()
	marks := make([]model.Attendance, len(req.Items))
	for i, item := range req.Items {
		marks[i] = model.Attendance{
			ID:              uuid.NewString(),
			OrganizationID:  claims.OrganizationID,
			LessonSessionID: lesson.ID,
			StudentID:       item.StudentID,
			Status:          statuses[i],
			Comment:         item.Comment,
			CreatedAt:       now,
		}
	}

	if err := s.store.CreateAttendanceBatch(r.Context(), marks); err != nil {
		if repository.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "attendance_already_exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]attendanceResponse, 0, len(marks))
	for _, m := range marks {
		resp = append(resp, attendanceResponse{
			ID:          m.ID,
			LessonID:    m.LessonSessionID,
			StudentID:   m.StudentID,
			StudentName: studentNames[m.StudentID],
			Status:      string(m.Status),
			Comment:     m.Comment,
			CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListLessonAttendance(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	lessonID := chi.URLParam(r, "lessonId")

	lesson, status, errCode := s.ensureLesson(r.Context(), claims.OrganizationID, lessonID)
	if errCode != "" {
		writeError(w, status, errCode)
		return
	}

	marks, err := s.store.ListLessonAttendance(r.Context(), lesson.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]attendanceResponse, 0, len(marks))
	for _, m := range marks {
		resp = append(resp, attendanceResponse{
			ID:          m.ID,
			LessonID:    m.LessonSessionID,
			StudentID:   m.StudentID,
			StudentName: m.StudentName,
			Status:      string(m.Status),
			Comment:     m.Comment,
			CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
