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

type createTeacherRequest struct {
	FullName       string  `json:"fullName"`
	Phone          string  `json:"phone"`
	Specialization *string `json:"specialization,omitempty"`
	IsActive       *bool   `json:"isActive,omitempty"`
	Note           *string `json:"note,omitempty"`
}

type teacherResponse struct {
	ID             string  `json:"id"`
	FullName       string  `json:"fullName"`
	Phone          string  `json:"phone"`
	Specialization *string `json:"specialization,omitempty"`
	IsActive       bool    `json:"isActive"`
	Note           *string `json:"note,omitempty"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

func mapTeacherResponse(t model.Teacher) teacherResponse {
	return teacherResponse{
		ID:             t.ID,
		FullName:       t.FullName,
		Phone:          t.Phone,
		Specialization: t.Specialization,
		IsActive:       t.IsActive,
		Note:           t.Note,
		CreatedAt:      t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleCreateTeacher(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	var req createTeacherRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		writeError(w, http.StatusBadRequest, "missing_full_name")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := time.Now().UTC()
	teacher := model.Teacher{
		ID:             uuid.NewString(),
		OrganizationID: claims.OrganizationID,
		FullName:       req.FullName,
		Phone:          strings.TrimSpace(req.Phone),
		Specialization: req.Specialization,
		IsActive:       isActive,
		Note:           req.Note,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateTeacher(r.Context(), teacher); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusCreated, mapTeacherResponse(teacher))
}

func (s *Server) handleListTeachers(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	skip, take := parsePagination(r)
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	teachers, err := s.store.ListTeachers(r.Context(), claims.OrganizationID, search, skip, take)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]teacherResponse, 0, len(teachers))
	for _, t := range teachers {
		resp = append(resp, mapTeacherResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTeacher(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	teacherID := chi.URLParam(r, "teacherId")
	if !isUUID(teacherID) {
		writeError(w, http.StatusNotFound, "teacher_not_found")
		return
	}

	teacher, err := s.store.GetTeacherInOrg(r.Context(), claims.OrganizationID, teacherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "teacher_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, mapTeacherResponse(teacher))
}

type patchTeacherRequest struct {
	FullName       *string `json:"fullName,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Specialization *string `json:"specialization,omitempty"`
	IsActive       *bool   `json:"isActive,omitempty"`
	Note           *string `json:"note,omitempty"`
}

func (s *Server) handlePatchTeacher(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	teacherID := chi.URLParam(r, "teacherId")
	if !isUUID(teacherID) {
		writeError(w, http.StatusNotFound, "teacher_not_found")
		return
	}

	var req patchTeacherRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	update := repository.TeacherUpdate{}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			writeError(w, http.StatusBadRequest, "missing_full_name")
			return
		}
		update.FullName = &name
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		update.Phone = &phone
	}
	update.Specialization = req.Specialization
	update.IsActive = req.IsActive
	update.Note = req.Note

	teacher, err := s.store.UpdateTeacher(r.Context(), claims.OrganizationID, teacherID, update)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "teacher_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, mapTeacherResponse(teacher))
}

func (s *Server) handleDeleteTeacher(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	teacherID := chi.URLParam(r, "teacherId")
	if !isUUID(teacherID) {
		writeError(w, http.StatusNotFound, "teacher_not_found")
		return
	}

	deleted, err := s.store.DeleteTeacher(r.Context(), claims.OrganizationID, teacherID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if deleted == 0 {
		writeError(w, http.StatusNotFound, "teacher_not_found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
