package http

import (
	"net/http/httptest"
	"testing"

	"classline/academy/internal/model"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc":  "abc",
		"Bearer  abc": "abc",
		"Basic abc":   "",
		"abc":         "",
		"":            "",
	}
	for header, expect := range cases {
		if got := bearerToken(header); got != expect {
			t.Fatalf("bearerToken(%q) = %q, want %q", header, got, expect)
		}
	}
}

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest("GET", "/students", nil)
	skip, take := parsePagination(r)
	if skip != 0 || take != 50 {
		t.Fatalf("expected defaults 0/50, got %d/%d", skip, take)
	}

	r = httptest.NewRequest("GET", "/students?skip=2&take=2", nil)
	skip, take = parsePagination(r)
	if skip != 2 || take != 2 {
		t.Fatalf("expected 2/2, got %d/%d", skip, take)
	}

	r = httptest.NewRequest("GET", "/students?skip=-1&take=0", nil)
	skip, take = parsePagination(r)
	if skip != 0 || take != 50 {
		t.Fatalf("expected invalid values to fall back to 0/50, got %d/%d", skip, take)
	}
}

func TestNormalizeStudentStatus(t *testing.T) {
	for _, raw := range []string{"ACTIVE", "active", " inactive ", "Archived"} {
		if _, ok := normalizeStudentStatus(raw); !ok {
			t.Fatalf("expected status %q to be valid", raw)
		}
	}
	if _, ok := normalizeStudentStatus("graduated"); ok {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestNormalizeAttendanceStatus(t *testing.T) {
	cases := map[string]model.AttendanceStatus{
		"present": model.AttendanceStatusPresent,
		"ABSENT":  model.AttendanceStatusAbsent,
		" late ":  model.AttendanceStatusLate,
		"Excused": model.AttendanceStatusExcused,
	}
	for raw, expect := range cases {
		got, ok := normalizeAttendanceStatus(raw)
		if !ok || got != expect {
			t.Fatalf("normalizeAttendanceStatus(%q) = %q/%v, want %q", raw, got, ok, expect)
		}
	}
	if _, ok := normalizeAttendanceStatus("signed"); ok {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestNormalizeTeacherGroupRole(t *testing.T) {
	if role, ok := normalizeTeacherGroupRole("lead"); !ok || role != model.TeacherGroupRoleLead {
		t.Fatalf("expected lead to normalize, got %q/%v", role, ok)
	}
	if role, ok := normalizeTeacherGroupRole("ASSISTANT"); !ok || role != model.TeacherGroupRoleAssistant {
		t.Fatalf("expected assistant to normalize, got %q/%v", role, ok)
	}
	if _, ok := normalizeTeacherGroupRole("owner"); ok {
		t.Fatalf("expected unknown role to be rejected")
	}
}

func TestDuplicateStudentID(t *testing.T) {
	items := []attendanceItem{
		{StudentID: "a", Status: "PRESENT"},
		{StudentID: "b", Status: "ABSENT"},
	}
	if duplicateStudentID(items) {
		t.Fatalf("expected no duplicates")
	}
	items = append(items, attendanceItem{StudentID: "a", Status: "LATE"})
	if !duplicateStudentID(items) {
		t.Fatalf("expected duplicate to be detected")
	}
}

func TestParseDate(t *testing.T) {
	if _, err := parseDate("2026-02-01"); err != nil {
		t.Fatalf("expected plain date to parse: %v", err)
	}
	if _, err := parseDate("2026-02-01T10:00:00Z"); err != nil {
		t.Fatalf("expected RFC3339 to parse: %v", err)
	}
	if _, err := parseDate("01/02/2026"); err == nil {
		t.Fatalf("expected unknown format to fail")
	}
}

func TestIsUUID(t *testing.T) {
	if !isUUID("2b0d7b3d-cb5c-46c6-8f0e-8e9b70b1d3a4") {
		t.Fatalf("expected canonical uuid to pass")
	}
	for _, bad := range []string{"", "not-a-uuid", "2b0d7b3d", "2b0d7b3d-cb5c-46c6-8f0e-8e9b70b1d3zz"} {
		if isUUID(bad) {
			t.Fatalf("expected %q to fail", bad)
		}
	}
}
