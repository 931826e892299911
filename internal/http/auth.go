package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"classline/academy/internal/auth"
	"classline/academy/internal/crypto"
	"classline/academy/internal/model"
)

type loginRequest struct {
	OrganizationID string `json:"organizationId"`
	Email          string `json:"email"`
	Password       string `json:"password"`
}

type authResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         userResponse `json:"user"`
}

type userResponse struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt"`
}

type organizationResponse struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	SubscriptionStatus string  `json:"subscriptionStatus"`
	SubscriptionPlan   string  `json:"subscriptionPlan"`
	SubscriptionEnds   *string `json:"subscriptionEndsAt"`
}

type meResponse struct {
	userResponse
	Organization organizationResponse `json:"organization"`
}

func mapUserResponse(user model.User) userResponse {
	return userResponse{
		ID:             user.ID,
		OrganizationID: user.OrganizationID,
		Email:          user.Email,
		Role:           string(user.Role),
		Status:         string(user.Status),
		CreatedAt:      user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.OrganizationID == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}
	if !isUUID(req.OrganizationID) {
		writeError(w, http.StatusBadRequest, "invalid_organization_id")
		return
	}

	user, err := s.store.GetUserByOrgEmail(r.Context(), req.OrganizationID, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	// A disabled account is indistinguishable from a wrong password.
	if user.Status != model.UserStatusActive {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	if err := crypto.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	accessToken, refreshToken, err := s.issueTokens(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	s.dropMeCache(r.Context(), user.ID)

	writeJSON(w, http.StatusOK, authResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         mapUserResponse(user),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "missing_refresh_token")
		return
	}

	claims, err := auth.ParseToken(s.cfg.JWTRefreshSecret, s.cfg.JWTIssuer, req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_refresh_token")
		return
	}

	user, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_refresh_token")
		return
	}

	// Rotation: only the most recently issued refresh token is accepted.
	tokenHash := crypto.HashToken(req.RefreshToken)
	if user.RefreshTokenHash == nil || *user.RefreshTokenHash != tokenHash {
		writeError(w, http.StatusUnauthorized, "invalid_refresh_token")
		return
	}
	if user.Status != model.UserStatusActive {
		writeError(w, http.StatusUnauthorized, "invalid_refresh_token")
		return
	}

	accessToken, refreshToken, err := s.issueTokens(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	s.dropMeCache(r.Context(), user.ID)

	writeJSON(w, http.StatusOK, authResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         mapUserResponse(user),
	})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	if cached, ok := s.getMeCache(r.Context(), claims.UserID); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	user, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user_not_found")
		return
	}

	org, err := s.store.GetOrganization(r.Context(), user.OrganizationID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	orgResp := organizationResponse{ID: org.ID, Name: org.Name}
	sub, err := s.store.GetSubscriptionByOrganization(r.Context(), user.OrganizationID)
	switch {
	case err == nil:
		orgResp.SubscriptionStatus = string(sub.Status)
		orgResp.SubscriptionPlan = sub.PlanCode
		if sub.ExpiresAt != nil {
			ends := sub.ExpiresAt.UTC().Format(time.RFC3339)
			orgResp.SubscriptionEnds = &ends
		}
	case errors.Is(err, pgx.ErrNoRows):
		orgResp.SubscriptionStatus = string(model.SubscriptionStatusExpired)
	default:
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := meResponse{
		userResponse: mapUserResponse(user),
		Organization: orgResp,
	}
	s.setMeCache(r.Context(), claims.UserID, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) issueTokens(ctx context.Context, user model.User) (string, string, error) {
	claims := auth.Claims{
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Role:           string(user.Role),
	}

	accessToken, err := auth.NewToken(s.cfg.JWTAccessSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, claims)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := auth.NewToken(s.cfg.JWTRefreshSecret, s.cfg.JWTIssuer, s.cfg.RefreshTokenTTL, claims)
	if err != nil {
		return "", "", err
	}

	tokenHash := crypto.HashToken(refreshToken)
	if err := s.store.SetRefreshTokenHash(ctx, user.ID, &tokenHash); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func meCacheKey(userID string) string {
	return "auth:me:" + userID
}

func (s *Server) getMeCache(ctx context.Context, userID string) (meResponse, bool) {
	if s.redis == nil {
		return meResponse{}, false
	}
	raw, err := s.redis.Get(ctx, meCacheKey(userID)).Bytes()
	if err != nil {
		return meResponse{}, false
	}
	var resp meResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return meResponse{}, false
	}
	return resp, true
}

func (s *Server) setMeCache(ctx context.Context, userID string, resp meResponse) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	_ = s.redis.Set(ctx, meCacheKey(userID), raw, s.cfg.MeCacheTTL).Err()
}

func (s *Server) dropMeCache(ctx context.Context, userID string) {
	if s.redis == nil {
		return
	}
	_ = s.redis.Del(ctx, meCacheKey(userID)).Err()
}
