package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"os"
	"testing"
	"time"
)

type loginResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func TestEndToEndAttendanceFlow(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}
	baseURL := getenv("API_HTTP_ADDR", "http://127.0.0.1:8080")
	token := seededLogin(t, baseURL)

	suffix := time.Now().UnixNano()
	studentID := createEntity(t, baseURL, token, "/students", map[string]interface{}{
		"fullName": fmt.Sprintf("Flow Student %d", suffix),
	})
	teacherID := createEntity(t, baseURL, token, "/teachers", map[string]interface{}{
		"fullName": fmt.Sprintf("Flow Teacher %d", suffix),
		"phone":    "+15550100",
	})
	courseID := createEntity(t, baseURL, token, "/courses", map[string]interface{}{
		"name": fmt.Sprintf("Flow Course %d", suffix),
	})
	groupID := createEntity(t, baseURL, token, "/groups", map[string]interface{}{
		"courseId":     courseID,
		"name":         fmt.Sprintf("Flow Group %d", suffix),
		"scheduleText": "Mon/Wed 18:00",
	})

	// Lesson creation must be rejected until the teacher is assigned.
	status, body := doJSON(t, http.MethodPost, baseURL+"/lessons", token, map[string]interface{}{
		"groupId":   groupID,
		"teacherId": teacherID,
		"date":      "2026-09-07T18:00:00Z",
	})
	expectError(t, status, body, http.StatusConflict, "teacher_not_assigned")

	status, _ = doJSON(t, http.MethodPost, baseURL+"/groups/"+groupID+"/teachers", token, map[string]interface{}{
		"teacherId": teacherID,
	})
	if status != http.StatusCreated {
		t.Fatalf("assign teacher status %d", status)
	}

	status, _ = doJSON(t, http.MethodPost, baseURL+"/groups/"+groupID+"/enroll", token, map[string]interface{}{
		"studentId": studentID,
	})
	if status != http.StatusCreated {
		t.Fatalf("enroll status %d", status)
	}

	lessonID := createEntity(t, baseURL, token, "/lessons", map[string]interface{}{
		"groupId":   groupID,
		"teacherId": teacherID,
		"date":      "2026-09-07T18:00:00Z",
		"topic":     "Introductions",
	})

	// Duplicate studentId inside one batch is a bad request, nothing written.
	status, body = doJSON(t, http.MethodPost, baseURL+"/lessons/"+lessonID+"/attendance", token, map[string]interface{}{
		"items": []map[string]interface{}{
			{"studentId": studentID, "status": "PRESENT"},
			{"studentId": studentID, "status": "LATE"},
		},
	})
	expectError(t, status, body, http.StatusBadRequest, "duplicate_student_id")

	// Empty batch is also a bad request.
	status, body = doJSON(t, http.MethodPost, baseURL+"/lessons/"+lessonID+"/attendance", token, map[string]interface{}{
		"items": []map[string]interface{}{},
	})
	expectError(t, status, body, http.StatusBadRequest, "empty_items")

	status, body = doJSON(t, http.MethodPost, baseURL+"/lessons/"+lessonID+"/attendance", token, map[string]interface{}{
		"items": []map[string]interface{}{
			{"studentId": studentID, "status": "PRESENT"},
		},
	})
	if status != http.StatusCreated {
		t.Fatalf("attendance status %d: %s", status, body)
	}
	var marks []map[string]interface{}
	if err := json.Unmarshal(body, &marks); err != nil {
		t.Fatalf("decode attendance: %v", err)
	}
	if len(marks) != 1 || marks[0]["status"] != "PRESENT" {
		t.Fatalf("expected one PRESENT mark, got %v", marks)
	}
	if marks[0]["studentName"] != fmt.Sprintf("Flow Student %d", suffix) {
		t.Fatalf("expected student name on created mark, got %v", marks[0]["studentName"])
	}

	// Resubmitting the same payload conflicts and writes nothing.
	status, body = doJSON(t, http.MethodPost, baseURL+"/lessons/"+lessonID+"/attendance", token, map[string]interface{}{
		"items": []map[string]interface{}{
			{"studentId": studentID, "status": "PRESENT"},
		},
	})
	expectError(t, status, body, http.StatusConflict, "attendance_already_exists")

	status, body = doJSON(t, http.MethodGet, baseURL+"/lessons/"+lessonID+"/attendance", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list attendance status %d", status)
	}
	if err := json.Unmarshal(body, &marks); err != nil {
		t.Fatalf("decode attendance list: %v", err)
	}
	if len(marks) != 1 {
		t.Fatalf("expected exactly one mark after failed resubmits, got %d", len(marks))
	}

	// A student without an active enrollment cannot be marked.
	strayID := createEntity(t, baseURL, token, "/students", map[string]interface{}{
		"fullName": fmt.Sprintf("Stray Student %d", suffix),
	})
	status, body = doJSON(t, http.MethodPost, baseURL+"/lessons/"+lessonID+"/attendance", token, map[string]interface{}{
		"items": []map[string]interface{}{
			{"studentId": strayID, "status": "ABSENT"},
		},
	})
	expectError(t, status, body, http.StatusConflict, "student_not_enrolled")
}

func TestEnrollmentLifecycle(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}
	baseURL := getenv("API_HTTP_ADDR", "http://127.0.0.1:8080")
	token := seededLogin(t, baseURL)

	suffix := time.Now().UnixNano()
	studentID := createEntity(t, baseURL, token, "/students", map[string]interface{}{
		"fullName": fmt.Sprintf("Enroll Student %d", suffix),
	})
	courseID := createEntity(t, baseURL, token, "/courses", map[string]interface{}{
		"name": fmt.Sprintf("Enroll Course %d", suffix),
	})
	groupID := createEntity(t, baseURL, token, "/groups", map[string]interface{}{
		"courseId":     courseID,
		"name":         fmt.Sprintf("Enroll Group %d", suffix),
		"scheduleText": "Tue 10:00",
	})

	payload := map[string]interface{}{"studentId": studentID}
	status, _ := doJSON(t, http.MethodPost, baseURL+"/groups/"+groupID+"/enroll", token, payload)
	if status != http.StatusCreated {
		t.Fatalf("first enroll status %d", status)
	}

	status, body := doJSON(t, http.MethodPost, baseURL+"/groups/"+groupID+"/enroll", token, payload)
	expectError(t, status, body, http.StatusConflict, "already_enrolled")

	status, _ = doJSON(t, http.MethodPost, baseURL+"/groups/"+groupID+"/unenroll", token, payload)
	if status != http.StatusOK {
		t.Fatalf("unenroll status %d", status)
	}

	status, body = doJSON(t, http.MethodPost, baseURL+"/groups/"+groupID+"/unenroll", token, payload)
	expectError(t, status, body, http.StatusNotFound, "active_enrollment_not_found")

	// Re-enrolling after leaving opens a fresh row, history stays behind.
	status, _ = doJSON(t, http.MethodPost, baseURL+"/groups/"+groupID+"/enroll", token, payload)
	if status != http.StatusCreated {
		t.Fatalf("re-enroll status %d", status)
	}
}

func TestTeacherAssignmentLifecycle(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}
	baseURL := getenv("API_HTTP_ADDR", "http://127.0.0.1:8080")
	token := seededLogin(t, baseURL)

	suffix := time.Now().UnixNano()
	teacherID := createEntity(t, baseURL, token, "/teachers", map[string]interface{}{
		"fullName": fmt.Sprintf("Assign Teacher %d", suffix),
		"phone":    "+15550101",
	})
	courseID := createEntity(t, baseURL, token, "/courses", map[string]interface{}{
		"name": fmt.Sprintf("Assign Course %d", suffix),
	})
	groupID := createEntity(t, baseURL, token, "/groups", map[string]interface{}{
		"courseId":     courseID,
		"name":         fmt.Sprintf("Assign Group %d", suffix),
		"scheduleText": "Fri 14:00",
	})

	payload := map[string]interface{}{"teacherId": teacherID, "role": "ASSISTANT"}
	status, _ := doJSON(t, http.MethodPost, baseURL+"/groups/"+groupID+"/teachers", token, payload)
	if status != http.StatusCreated {
		t.Fatalf("assign status %d", status)
	}

	status, body := doJSON(t, http.MethodPost, baseURL+"/groups/"+groupID+"/teachers", token, payload)
	expectError(t, status, body, http.StatusConflict, "teacher_already_assigned")

	status, _ = doJSON(t, http.MethodDelete, baseURL+"/groups/"+groupID+"/teachers/"+teacherID, token, nil)
	if status != http.StatusOK {
		t.Fatalf("remove status %d", status)
	}

	status, body = doJSON(t, http.MethodDelete, baseURL+"/groups/"+groupID+"/teachers/"+teacherID, token, nil)
	expectError(t, status, body, http.StatusNotFound, "assignment_not_found")

	status, _ = doJSON(t, http.MethodPost, baseURL+"/groups/"+groupID+"/teachers", token, payload)
	if status != http.StatusCreated {
		t.Fatalf("re-assign status %d", status)
	}
}

func TestStudentPagination(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}
	baseURL := getenv("API_HTTP_ADDR", "http://127.0.0.1:8080")
	token := seededLogin(t, baseURL)

	prefix := fmt.Sprintf("Page %d", time.Now().UnixNano())
	for i := 0; i < 5; i++ {
		createEntity(t, baseURL, token, "/students", map[string]interface{}{
			"fullName": fmt.Sprintf("%s Student %d", prefix, i),
		})
		time.Sleep(10 * time.Millisecond)
	}

	first := listStudents(t, baseURL, token, prefix, 0, 2)
	if len(first) != 2 {
		t.Fatalf("expected 2 students, got %d", len(first))
	}
	second := listStudents(t, baseURL, token, prefix, 2, 2)
	if len(second) != 2 {
		t.Fatalf("expected next 2 students, got %d", len(second))
	}
	for _, a := range first {
		for _, b := range second {
			if a["id"] == b["id"] {
				t.Fatalf("pages overlap on id %v", a["id"])
			}
		}
	}

	// Newest first, across page boundaries too.
	combined := append(append([]map[string]interface{}{}, first...), second...)
	var prev string
	for i, st := range combined {
		createdAt, _ := st["createdAt"].(string)
		if createdAt == "" {
			t.Fatalf("student %d missing createdAt", i)
		}
		if prev != "" && createdAt > prev {
			t.Fatalf("students out of order: %s after %s", createdAt, prev)
		}
		prev = createdAt
	}
}

// Cross-tenant isolation needs a second organization, which only the seeder
// can create. Point SECONDARY_ORG_ID/SECONDARY_EMAIL/SECONDARY_PASSWORD at an
// owner of a different organization to enable this test.
func TestCrossTenantIsolation(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}
	secondaryOrg := os.Getenv("SECONDARY_ORG_ID")
	secondaryEmail := os.Getenv("SECONDARY_EMAIL")
	if secondaryOrg == "" || secondaryEmail == "" {
		t.Skip("set SECONDARY_ORG_ID and SECONDARY_EMAIL to run")
	}
	baseURL := getenv("API_HTTP_ADDR", "http://127.0.0.1:8080")
	ownToken := seededLogin(t, baseURL)
	foreignToken := login(t, baseURL, secondaryOrg, secondaryEmail, getenv("SECONDARY_PASSWORD", "changeme123"))

	studentID := createEntity(t, baseURL, ownToken, "/students", map[string]interface{}{
		"fullName": fmt.Sprintf("Isolation Student %d", time.Now().UnixNano()),
	})

	// Reads through the ownership check surface the foreign org as a conflict.
	status, body := doJSON(t, http.MethodGet, baseURL+"/students/"+studentID, foreignToken, nil)
	expectError(t, status, body, http.StatusConflict, "student_wrong_organization")

	// Update and delete use a combined filter, so the same id reads as absent.
	status, body = doJSON(t, http.MethodPatch, baseURL+"/students/"+studentID, foreignToken, map[string]interface{}{
		"fullName": "Hijacked",
	})
	expectError(t, status, body, http.StatusNotFound, "student_not_found")

	status, body = doJSON(t, http.MethodDelete, baseURL+"/students/"+studentID, foreignToken, nil)
	expectError(t, status, body, http.StatusNotFound, "student_not_found")

	// Teacher, course and group reads resolve by (id, org) jointly, so a
	// foreign id is indistinguishable from a missing one.
	suffix := time.Now().UnixNano()
	teacherID := createEntity(t, baseURL, ownToken, "/teachers", map[string]interface{}{
		"fullName": fmt.Sprintf("Isolation Teacher %d", suffix),
		"phone":    "+10000000000",
	})
	courseID := createEntity(t, baseURL, ownToken, "/courses", map[string]interface{}{
		"name": fmt.Sprintf("Isolation Course %d", suffix),
	})
	groupID := createEntity(t, baseURL, ownToken, "/groups", map[string]interface{}{
		"courseId":     courseID,
		"name":         fmt.Sprintf("Isolation Group %d", suffix),
		"scheduleText": "Mon 10:00",
	})

	status, body = doJSON(t, http.MethodGet, baseURL+"/teachers/"+teacherID, foreignToken, nil)
	expectError(t, status, body, http.StatusNotFound, "teacher_not_found")
	status, body = doJSON(t, http.MethodGet, baseURL+"/courses/"+courseID, foreignToken, nil)
	expectError(t, status, body, http.StatusNotFound, "course_not_found")
	status, body = doJSON(t, http.MethodGet, baseURL+"/groups/"+groupID, foreignToken, nil)
	expectError(t, status, body, http.StatusNotFound, "group_not_found")

	// The owner still sees the untouched row.
	status, body = doJSON(t, http.MethodGet, baseURL+"/students/"+studentID, ownToken, nil)
	if status != http.StatusOK {
		t.Fatalf("owner read status %d", status)
	}
	var student map[string]interface{}
	if err := json.Unmarshal(body, &student); err != nil {
		t.Fatalf("decode student: %v", err)
	}
	if student["fullName"] == "Hijacked" {
		t.Fatalf("foreign tenant mutated the row")
	}
}

func TestAuthRefreshRotation(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}
	baseURL := getenv("API_HTTP_ADDR", "http://127.0.0.1:8080")

	payload := map[string]interface{}{
		"organizationId": getenv("SEED_ORG_ID", "00000000-0000-0000-0000-000000000001"),
		"email":          getenv("SEED_EMAIL", "owner@demo.academy"),
		"password":       getenv("SEED_PASSWORD", "changeme123"),
	}
	status, body := doJSON(t, http.MethodPost, baseURL+"/auth/login", "", payload)
	if status != http.StatusOK {
		t.Fatalf("login status %d", status)
	}
	var tokens loginResult
	if err := json.Unmarshal(body, &tokens); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	status, body = doJSON(t, http.MethodPost, baseURL+"/auth/refresh", "", map[string]interface{}{
		"refreshToken": tokens.RefreshToken,
	})
	if status != http.StatusOK {
		t.Fatalf("refresh status %d: %s", status, body)
	}
	var rotated loginResult
	if err := json.Unmarshal(body, &rotated); err != nil {
		t.Fatalf("decode refresh: %v", err)
	}

	// The rotated access token serves a fresh profile.
	status, body = doJSON(t, http.MethodGet, baseURL+"/auth/me", rotated.AccessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("me after refresh status %d: %s", status, body)
	}

	// The old refresh token was rotated out and must not work twice.
	status, body = doJSON(t, http.MethodPost, baseURL+"/auth/refresh", "", map[string]interface{}{
		"refreshToken": tokens.RefreshToken,
	})
	expectError(t, status, body, http.StatusUnauthorized, "invalid_refresh_token")
}

func TestAuthMe(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}
	baseURL := getenv("API_HTTP_ADDR", "http://127.0.0.1:8080")
	token := seededLogin(t, baseURL)

	status, body := doJSON(t, http.MethodGet, baseURL+"/auth/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("me status %d: %s", status, body)
	}
	var me struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		Organization struct {
			ID                 string `json:"id"`
			Name               string `json:"name"`
			SubscriptionStatus string `json:"subscriptionStatus"`
		} `json:"organization"`
	}
	if err := json.Unmarshal(body, &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.ID == "" || me.Email == "" {
		t.Fatalf("incomplete profile: %s", body)
	}
	if me.Organization.ID == "" || me.Organization.Name == "" {
		t.Fatalf("missing organization block: %s", body)
	}
	if me.Organization.SubscriptionStatus == "" {
		t.Fatalf("missing subscription status: %s", body)
	}

	status, body = doJSON(t, http.MethodGet, baseURL+"/auth/me", "", nil)
	expectError(t, status, body, http.StatusUnauthorized, "missing_token")
}

func seededLogin(t *testing.T, baseURL string) string {
	t.Helper()
	return login(t, baseURL,
		getenv("SEED_ORG_ID", "00000000-0000-0000-0000-000000000001"),
		getenv("SEED_EMAIL", "owner@demo.academy"),
		getenv("SEED_PASSWORD", "changeme123"))
}

func login(t *testing.T, baseURL, orgID, email, password string) string {
	t.Helper()
	status, body := doJSON(t, http.MethodPost, baseURL+"/auth/login", "", map[string]interface{}{
		"organizationId": orgID,
		"email":          email,
		"password":       password,
	})
	if status != http.StatusOK {
		t.Fatalf("login status %d: %s", status, body)
	}
	var tokens loginResult
	if err := json.Unmarshal(body, &tokens); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if tokens.AccessToken == "" {
		t.Fatalf("missing access token")
	}
	return tokens.AccessToken
}

func createEntity(t *testing.T, baseURL, token, path string, payload map[string]interface{}) string {
	t.Helper()
	status, body := doJSON(t, http.MethodPost, baseURL+path, token, payload)
	if status != http.StatusCreated {
		t.Fatalf("create %s status %d: %s", path, status, body)
	}
	var created map[string]interface{}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode create %s: %v", path, err)
	}
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("create %s returned no id", path)
	}
	return id
}

func listStudents(t *testing.T, baseURL, token, search string, skip, take int) []map[string]interface{} {
	t.Helper()
	url := fmt.Sprintf("%s/students?search=%s&skip=%d&take=%d", baseURL, neturl.QueryEscape(search), skip, take)
	status, body := doJSON(t, http.MethodGet, url, token, nil)
	if status != http.StatusOK {
		t.Fatalf("list students status %d", status)
	}
	var students []map[string]interface{}
	if err := json.Unmarshal(body, &students); err != nil {
		t.Fatalf("decode students: %v", err)
	}
	return students
}

func doJSON(t *testing.T, method, url, token string, payload map[string]interface{}) (int, []byte) {
	t.Helper()
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, bytes.NewBuffer(bodyBytes))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, body
}

func expectError(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("expected status %d, got %d: %s", wantStatus, status, body)
	}
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Error != wantCode {
		t.Fatalf("expected error %s, got %s", wantCode, errResp.Error)
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
