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

type createGroupRequest struct {
	CourseID     string  `json:"courseId"`
	Name         string  `json:"name"`
	ScheduleText string  `json:"scheduleText"`
	StartDate    *string `json:"startDate,omitempty"`
	EndDate      *string `json:"endDate,omitempty"`
	Status       *string `json:"status,omitempty"`
}

type groupResponse struct {
	ID           string  `json:"id"`
	CourseID     string  `json:"courseId"`
	Name         string  `json:"name"`
	ScheduleText string  `json:"scheduleText"`
	StartDate    *string `json:"startDate,omitempty"`
	EndDate      *string `json:"endDate,omitempty"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

func mapGroupResponse(g model.Group) groupResponse {
	resp := groupResponse{
		ID:           g.ID,
		CourseID:     g.CourseID,
		Name:         g.Name,
		ScheduleText: g.ScheduleText,
		Status:       string(g.Status),
		CreatedAt:    g.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    g.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if g.StartDate != nil {
		date := g.StartDate.UTC().Format("2006-01-02")
		resp.StartDate = &date
	}
	if g.EndDate != nil {
		date := g.EndDate.UTC().Format("2006-01-02")
		resp.EndDate = &date
	}
	return resp
}

func normalizeGroupStatus(raw string) (model.GroupStatus, bool) {
	switch model.GroupStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case model.GroupStatusActive:
		return model.GroupStatusActive, true
	case model.GroupStatusCompleted:
		return model.GroupStatusCompleted, true
	case model.GroupStatusArchived:
		return model.GroupStatusArchived, true
	default:
		return "", false
	}
}

func normalizeTeacherGroupRole(raw string) (model.TeacherGroupRole, bool) {
	switch model.TeacherGroupRole(strings.ToUpper(strings.TrimSpace(raw))) {
	case model.TeacherGroupRoleLead:
		return model.TeacherGroupRoleLead, true
	case model.TeacherGroupRoleAssistant:
		return model.TeacherGroupRoleAssistant, true
	default:
		return "", false
	}
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.CourseID == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	if _, status, errCode := s.ensureCourse(r.Context(), claims.OrganizationID, req.CourseID); errCode != "" {
		writeError(w, status, errCode)
		return
	}

	groupStatus := model.GroupStatusActive
	if req.Status != nil {
		parsed, ok := normalizeGroupStatus(*req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
		groupStatus = parsed
	}

	var startDate, endDate *time.Time
	if req.StartDate != nil && *req.StartDate != "" {
		parsed, err := parseDate(*req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_date")
			return
		}
		startDate = &parsed
	}
	if req.EndDate != nil && *req.EndDate != "" {
		parsed, err := parseDate(*req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_date")
			return
		}
		endDate = &parsed
	}

	now := time.Now().UTC()
	group := model.Group{
		ID:             uuid.NewString(),
		OrganizationID: claims.OrganizationID,
		CourseID:       req.CourseID,
		Name:           req.Name,
		ScheduleText:   strings.TrimSpace(req.ScheduleText),
		StartDate:      startDate,
		EndDate:        endDate,
		Status:         groupStatus,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateGroup(r.Context(), group); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusCreated, mapGroupResponse(group))
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	skip, take := parsePagination(r)
	filter := repository.GroupFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	}
	if courseID := r.URL.Query().Get("courseId"); courseID != "" {
		if _, status, errCode := s.ensureCourse(r.Context(), claims.OrganizationID, courseID); errCode != "" {
			writeError(w, status, errCode)
			return
		}
		filter.CourseID = courseID
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, ok := normalizeGroupStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
		filter.Status = parsed
	}

	groups, err := s.store.ListGroups(r.Context(), claims.OrganizationID, filter, skip, take)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, mapGroupResponse(g))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	groupID := chi.URLParam(r, "groupId")
	if !isUUID(groupID) {
		writeError(w, http.StatusNotFound, "group_not_found")
		return
	}

	group, err := s.store.GetGroupInOrg(r.Context(), claims.OrganizationID, groupID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "group_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, mapGroupResponse(group))
}

type patchGroupRequest struct {
	CourseID     *string `json:"courseId,omitempty"`
	Name         *string `json:"name,omitempty"`
	ScheduleText *string `json:"scheduleText,omitempty"`
	StartDate    *string `json:"startDate,omitempty"`
	EndDate      *string `json:"endDate,omitempty"`
	Status       *string `json:"status,omitempty"`
}

func (s *Server) handlePatchGroup(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	groupID := chi.URLParam(r, "groupId")

	if _, status, errCode := s.ensureGroup(r.Context(), claims.OrganizationID, groupID); errCode != "" {
		writeError(w, status, errCode)
		return
	}

	var req patchGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	update := repository.GroupUpdate{}
	if req.CourseID != nil {
		// Repointing the group re-checks the new course's tenant.
		if _, status, errCode := s.ensureCourse(r.Context(), claims.OrganizationID, *req.CourseID); errCode != "" {
			writeError(w, status, errCode)
			return
		}
		update.CourseID = req.CourseID
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, "missing_name")
			return
		}
		update.Name = &name
	}
	if req.ScheduleText != nil {
		schedule := strings.TrimSpace(*req.ScheduleText)
		update.ScheduleText = &schedule
	}
	if req.StartDate != nil && *req.StartDate != "" {
		parsed, err := parseDate(*req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_date")
			return
		}
		update.StartDate = &parsed
	}
	if req.EndDate != nil && *req.EndDate != "" {
		parsed, err := parseDate(*req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_date")
			return
		}
		update.EndDate = &parsed
	}
	if req.Status != nil {
		parsed, ok := normalizeGroupStatus(*req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
		update.Status = &parsed
	}

	group, err := s.store.UpdateGroup(r.Context(), groupID, update)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, mapGroupResponse(group))
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	groupID := chi.URLParam(r, "groupId")
	if !isUUID(groupID) {
		writeError(w, http.StatusNotFound, "group_not_found")
		return
	}

	deleted, err := s.store.DeleteGroup(r.Context(), claims.OrganizationID, groupID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if deleted == 0 {
		writeError(w, http.StatusNotFound, "group_not_found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type enrollRequest struct {
	StudentID string `json:"studentId"`
}

type enrollmentResponse struct {
	ID        string  `json:"id"`
	GroupID   string  `json:"groupId"`
	StudentID string  `json:"studentId"`
	JoinedAt  string  `json:"joinedAt"`
	LeftAt    *string `json:"leftAt,omitempty"`
}

func mapEnrollmentResponse(e model.Enrollment) enrollmentResponse {
	resp := enrollmentResponse{
		ID:        e.ID,
		GroupID:   e.GroupID,
		StudentID: e.StudentID,
		JoinedAt:  e.JoinedAt.UTC().Format(time.RFC3339),
	}
	if e.LeftAt != nil {
		left := e.LeftAt.UTC().Format(time.RFC3339)
		resp.LeftAt = &left
	}
	return resp
}

func (s *Server) handleEnrollStudent(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	groupID := chi.URLParam(r, "groupId")

	var req enrollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.StudentID == "" {
		writeError(w, http.StatusBadRequest, "missing_student_id")
		return
	}

	if _, status, errCode := s.ensureGroup(r.Context(), claims.OrganizationID, groupID); errCode != "" {
		writeError(w, status, errCode)
		return
	}
	if _, status, errCode := s.ensureStudent(r.Context(), claims.OrganizationID, req.StudentID); errCode != "" {
		writeError(w, status, errCode)
		return
	}

	if _, err := s.store.GetActiveEnrollment(r.Context(), groupID, req.StudentID); err == nil {
		writeError(w, http.StatusConflict, "already_enrolled")
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	enrollment := model.Enrollment{
		ID:             uuid.NewString(),
		OrganizationID: claims.OrganizationID,
		GroupID:        groupID,
		StudentID:      req.StudentID,
		JoinedAt:       time.Now().UTC(),
	}
	if err := s.store.CreateEnrollment(r.Context(), enrollment); err != nil {
		// A concurrent enroll can pass the existence check; the partial
		// unique index settles the race.
		if repository.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "already_enrolled")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusCreated, mapEnrollmentResponse(enrollment))
}

func (s *Server) handleUnenrollStudent(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	groupID := chi.URLParam(r, "groupId")

	var req enrollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.StudentID == "" {
		writeError(w, http.StatusBadRequest, "missing_student_id")
		return
	}

	if _, status, errCode := s.ensureGroup(r.Context(), claims.OrganizationID, groupID); errCode != "" {
		writeError(w, status, errCode)
		return
	}
	if _, status, errCode := s.ensureStudent(r.Context(), claims.OrganizationID, req.StudentID); errCode != "" {
		writeError(w, status, errCode)
		return
	}

	enrollment, err := s.store.GetActiveEnrollment(r.Context(), groupID, req.StudentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "active_enrollment_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	leftAt := time.Now().UTC()
	if err := s.store.CloseEnrollment(r.Context(), enrollment.ID, leftAt); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	enrollment.LeftAt = &leftAt
	writeJSON(w, http.StatusOK, mapEnrollmentResponse(enrollment))
}

type groupStudentResponse struct {
	StudentID string `json:"studentId"`
	FullName  string `json:"fullName"`
	Status    string `json:"status"`
	JoinedAt  string `json:"joinedAt"`
}

func (s *Server) handleListGroupStudents(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	groupID := chi.URLParam(r, "groupId")

	if _, status, errCode := s.ensureGroup(r.Context(), claims.OrganizationID, groupID); errCode != "" {
		writeError(w, status, errCode)
		return
	}

	students, err := s.store.ListGroupStudents(r.Context(), groupID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]groupStudentResponse, 0, len(students))
	for _, gs := range students {
		resp = append(resp, groupStudentResponse{
			StudentID: gs.StudentID,
			FullName:  gs.FullName,
			Status:    string(gs.Status),
			JoinedAt:  gs.JoinedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type addGroupTeacherRequest struct {
	TeacherID string  `json:"teacherId"`
	Role      *string `json:"role,omitempty"`
}

type groupTeacherResponse struct {
	TeacherID      string  `json:"teacherId"`
	FullName       string  `json:"fullName"`
	Phone          string  `json:"phone"`
	Specialization *string `json:"specialization,omitempty"`
	Role           string  `json:"role"`
	AssignedAt     string  `json:"assignedAt"`
}

func (s *Server) handleAddGroupTeacher(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	groupID := chi.URLParam(r, "groupId")

	var req addGroupTeacherRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.TeacherID == "" {
		writeError(w, http.StatusBadRequest, "missing_teacher_id")
		return
	}

	role := model.TeacherGroupRoleLead
	if req.Role != nil {
		parsed, ok := normalizeTeacherGroupRole(*req.Role)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_role")
			return
		}
		role = parsed
	}

	if _, status, errCode := s.ensureGroup(r.Context(), claims.OrganizationID, groupID); errCode != "" {
		writeError(w, status, errCode)
		return
	}
	teacher, status, errCode := s.ensureTeacher(r.Context(), claims.OrganizationID, req.TeacherID)
	if errCode != "" {
		writeError(w, status, errCode)
		return
	}

	if _, err := s.store.GetTeacherGroup(r.Context(), groupID, req.TeacherID); err == nil {
		writeError(w, http.StatusConflict, "teacher_already_assigned")
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	assignment := model.TeacherGroup{
		ID:             uuid.NewString(),
		OrganizationID: claims.OrganizationID,
		GroupID:        groupID,
		TeacherID:      req.TeacherID,
		Role:           role,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateTeacherGroup(r.Context(), assignment); err != nil {
		if repository.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "teacher_already_assigned")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusCreated, groupTeacherResponse{
		TeacherID:      teacher.ID,
		FullName:       teacher.FullName,
		Phone:          teacher.Phone,
		Specialization: teacher.Specialization,
		Role:           string(assignment.Role),
		AssignedAt:     assignment.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleRemoveGroupTeacher(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	groupID := chi.URLParam(r, "groupId")
	teacherID := chi.URLParam(r, "teacherId")
	if !isUUID(groupID) || !isUUID(teacherID) {
		writeError(w, http.StatusNotFound, "assignment_not_found")
		return
	}

	deleted, err := s.store.DeleteTeacherGroup(r.Context(), claims.OrganizationID, groupID, teacherID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if deleted == 0 {
		writeError(w, http.StatusNotFound, "assignment_not_found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListGroupTeachers(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	groupID := chi.URLParam(r, "groupId")

	if _, status, errCode := s.ensureGroup(r.Context(), claims.OrganizationID, groupID); errCode != "" {
		writeError(w, status, errCode)
		return
	}

	teachers, err := s.store.ListGroupTeachers(r.Context(), groupID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]groupTeacherResponse, 0, len(teachers))
	for _, gt := range teachers {
		resp = append(resp, groupTeacherResponse{
			TeacherID:      gt.TeacherID,
			FullName:       gt.FullName,
			Phone:          gt.Phone,
			Specialization: gt.Specialization,
			Role:           string(gt.Role),
			AssignedAt:     gt.AssignedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
