package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"classline/academy/internal/auth"
	"classline/academy/internal/config"
	"classline/academy/internal/repository"
)

type Server struct {
	cfg   config.Config
	store *repository.Store
	redis *redis.Client
}

func NewServer(cfg config.Config, store *repository.Store, rdb *redis.Client) (*Server, error) {
	if cfg.JWTAccessSecret == "" || cfg.JWTRefreshSecret == "" {
		return nil, errors.New("jwt secrets not configured")
	}
	return &Server{
		cfg:   cfg,
		store: store,
		redis: rdb,
	}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/refresh", s.handleRefresh)
	r.With(s.authMiddleware).Get("/auth/me", s.handleGetMe)

	r.Route("/students", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/", s.handleCreateStudent)
		r.Get("/", s.handleListStudents)
		r.Get("/{studentId}", s.handleGetStudent)
		r.Patch("/{studentId}", s.handlePatchStudent)
		r.Delete("/{studentId}", s.handleDeleteStudent)
		r.Get("/{studentId}/groups", s.handleListStudentGroups)
	})

	r.Route("/teachers", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/", s.handleCreateTeacher)
		r.Get("/", s.handleListTeachers)
		r.Get("/{teacherId}", s.handleGetTeacher)
		r.Patch("/{teacherId}", s.handlePatchTeacher)
		r.Delete("/{teacherId}", s.handleDeleteTeacher)
	})

	r.Route("/courses", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/", s.handleCreateCourse)
		r.Get("/", s.handleListCourses)
		r.Get("/{courseId}", s.handleGetCourse)
		r.Patch("/{courseId}", s.handlePatchCourse)
		r.Delete("/{courseId}", s.handleDeleteCourse)
	})

	r.Route("/groups", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/", s.handleCreateGroup)
		r.Get("/", s.handleListGroups)
		r.Get("/{groupId}", s.handleGetGroup)
		r.Patch("/{groupId}", s.handlePatchGroup)
		r.Delete("/{groupId}", s.handleDeleteGroup)
		r.Post("/{groupId}/enroll", s.handleEnrollStudent)
		r.Post("/{groupId}/unenroll", s.handleUnenrollStudent)
		r.Get("/{groupId}/students", s.handleListGroupStudents)
		r.Post("/{groupId}/teachers", s.handleAddGroupTeacher)
		r.Get("/{groupId}/teachers", s.handleListGroupTeachers)
		r.Delete("/{groupId}/teachers/{teacherId}", s.handleRemoveGroupTeacher)
	})

	r.Route("/lessons", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/", s.handleCreateLesson)
		r.Get("/", s.handleListLessons)
		r.Post("/{lessonId}/attendance", s.handleAddAttendance)
		r.Get("/{lessonId}/attendance", s.handleListLessonAttendance)
	})

	return r
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}

		claims, err := auth.ParseToken(s.cfg.JWTAccessSecret, s.cfg.JWTIssuer, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type claimsKey struct{}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// parsePagination reads skip/take query parameters. take defaults to 50 and
// is not capped.
func parsePagination(r *http.Request) (skip, take int) {
	skip, take = 0, 50
	if raw := r.URL.Query().Get("skip"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			skip = parsed
		}
	}
	if raw := r.URL.Query().Get("take"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			take = parsed
		}
	}
	return skip, take
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
