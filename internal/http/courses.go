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

type createCourseRequest struct {
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	DurationMonths *int32  `json:"durationMonths,omitempty"`
	IsActive       *bool   `json:"isActive,omitempty"`
}

type courseResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	DurationMonths *int32  `json:"durationMonths,omitempty"`
	IsActive       bool    `json:"isActive"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

func mapCourseResponse(c model.Course) courseResponse {
	return courseResponse{
		ID:             c.ID,
		Name:           c.Name,
		Description:    c.Description,
		DurationMonths: c.DurationMonths,
		IsActive:       c.IsActive,
		CreatedAt:      c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	var req createCourseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing_name")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := time.Now().UTC()
	course := model.Course{
		ID:             uuid.NewString(),
		OrganizationID: claims.OrganizationID,
		Name:           req.Name,
		Description:    req.Description,
		DurationMonths: req.DurationMonths,
		IsActive:       isActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateCourse(r.Context(), course); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusCreated, mapCourseResponse(course))
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	skip, take := parsePagination(r)
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	courses, err := s.store.ListCourses(r.Context(), claims.OrganizationID, search, skip, take)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]courseResponse, 0, len(courses))
	for _, c := range courses {
		resp = append(resp, mapCourseResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	courseID := chi.URLParam(r, "courseId")
	if !isUUID(courseID) {
		writeError(w, http.StatusNotFound, "course_not_found")
		return
	}

	course, err := s.store.GetCourseInOrg(r.Context(), claims.OrganizationID, courseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "course_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, mapCourseResponse(course))
}

type patchCourseRequest struct {
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	DurationMonths *int32  `json:"durationMonths,omitempty"`
	IsActive       *bool   `json:"isActive,omitempty"`
}

func (s *Server) handlePatchCourse(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	courseID := chi.URLParam(r, "courseId")
	if !isUUID(courseID) {
		writeError(w, http.StatusNotFound, "course_not_found")
		return
	}

	var req patchCourseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	update := repository.CourseUpdate{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, "missing_name")
			return
		}
		update.Name = &name
	}
	update.Description = req.Description
	update.DurationMonths = req.DurationMonths
	update.IsActive = req.IsActive

	course, err := s.store.UpdateCourse(r.Context(), claims.OrganizationID, courseID, update)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "course_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, mapCourseResponse(course))
}

func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	courseID := chi.URLParam(r, "courseId")
	if !isUUID(courseID) {
		writeError(w, http.StatusNotFound, "course_not_found")
		return
	}

	deleted, err := s.store.DeleteCourse(r.Context(), claims.OrganizationID, courseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if deleted == 0 {
		writeError(w, http.StatusNotFound, "course_not_found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
