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

type createStudentRequest struct {
	FullName  string  `json:"fullName"`
	BirthDate *string `json:"birthDate,omitempty"`
	Status    *string `json:"status,omitempty"`
}

type studentResponse struct {
	ID        string  `json:"id"`
	FullName  string  `json:"fullName"`
	BirthDate *string `json:"birthDate,omitempty"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

func mapStudentResponse(st model.Student) studentResponse {
	resp := studentResponse{
		ID:        st.ID,
		FullName:  st.FullName,
		Status:    string(st.Status),
		CreatedAt: st.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: st.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if st.BirthDate != nil {
		date := st.BirthDate.UTC().Format("2006-01-02")
		resp.BirthDate = &date
	}
	return resp
}

func normalizeStudentStatus(raw string) (model.StudentStatus, bool) {
	switch model.StudentStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case model.StudentStatusActive:
		return model.StudentStatusActive, true
	case model.StudentStatusInactive:
		return model.StudentStatusInactive, true
	case model.StudentStatusArchived:
		return model.StudentStatusArchived, true
	default:
		return "", false
	}
}

// parseDate accepts a calendar date, with or without a time part.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	var req createStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		writeError(w, http.StatusBadRequest, "missing_full_name")
		return
	}

	status := model.StudentStatusActive
	if req.Status != nil {
		parsed, ok := normalizeStudentStatus(*req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
		status = parsed
	}

	var birthDate *time.Time
	if req.BirthDate != nil && *req.BirthDate != "" {
		parsed, err := parseDate(*req.BirthDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_birth_date")
			return
		}
		birthDate = &parsed
	}

	now := time.Now().UTC()
	student := model.Student{
		ID:             uuid.NewString(),
		OrganizationID: claims.OrganizationID,
		FullName:       req.FullName,
		BirthDate:      birthDate,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateStudent(r.Context(), student); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusCreated, mapStudentResponse(student))
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	skip, take := parsePagination(r)
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	students, err := s.store.ListStudents(r.Context(), claims.OrganizationID, search, skip, take)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]studentResponse, 0, len(students))
	for _, st := range students {
		resp = append(resp, mapStudentResponse(st))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	studentID := chi.URLParam(r, "studentId")

	student, status, errCode := s.ensureStudent(r.Context(), claims.OrganizationID, studentID)
	if errCode != "" {
		writeError(w, status, errCode)
		return
	}

	writeJSON(w, http.StatusOK, mapStudentResponse(student))
}

type patchStudentRequest struct {
	FullName  *string `json:"fullName,omitempty"`
	BirthDate *string `json:"birthDate,omitempty"`
	Status    *string `json:"status,omitempty"`
}

func (s *Server) handlePatchStudent(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	studentID := chi.URLParam(r, "studentId")
	if !isUUID(studentID) {
		writeError(w, http.StatusNotFound, "student_not_found")
		return
	}

	var req patchStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	update := repository.StudentUpdate{}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			writeError(w, http.StatusBadRequest, "missing_full_name")
			return
		}
		update.FullName = &name
	}
	if req.BirthDate != nil && *req.BirthDate != "" {
		parsed, err := parseDate(*req.BirthDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_birth_date")
			return
		}
		update.BirthDate = &parsed
	}
	if req.Status != nil {
		parsed, ok := normalizeStudentStatus(*req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
		update.Status = &parsed
	}

	// The update filters by id and organization together, so a foreign
	// tenant's id reads as not found rather than a conflict.
	student, err := s.store.UpdateStudent(r.Context(), claims.OrganizationID, studentID, update)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "student_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, mapStudentResponse(student))
}

func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	studentID := chi.URLParam(r, "studentId")
	if !isUUID(studentID) {
		writeError(w, http.StatusNotFound, "student_not_found")
		return
	}

	deleted, err := s.store.DeleteStudent(r.Context(), claims.OrganizationID, studentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if deleted == 0 {
		writeError(w, http.StatusNotFound, "student_not_found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type studentGroupResponse struct {
	GroupID    string `json:"groupId"`
	GroupName  string `json:"groupName"`
	CourseName string `json:"courseName"`
	Status     string `json:"status"`
	JoinedAt   string `json:"joinedAt"`
}

func (s *Server) handleListStudentGroups(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	studentID := chi.URLParam(r, "studentId")

	_, status, errCode := s.ensureStudent(r.Context(), claims.OrganizationID, studentID)
	if errCode != "" {
		writeError(w, status, errCode)
		return
	}

	groups, err := s.store.ListStudentGroups(r.Context(), studentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]studentGroupResponse, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, studentGroupResponse{
			GroupID:    g.GroupID,
			GroupName:  g.GroupName,
			CourseName: g.CourseName,
			Status:     string(g.Status),
			JoinedAt:   g.JoinedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
