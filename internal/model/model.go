package model

import "time"

type UserRole string

const (
	UserRoleOwner UserRole = "OWNER"
	UserRoleAdmin UserRole = "ADMIN"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusDisabled UserStatus = "DISABLED"
)

type StudentStatus string

const (
	StudentStatusActive   StudentStatus = "ACTIVE"
	StudentStatusInactive StudentStatus = "INACTIVE"
	StudentStatusArchived StudentStatus = "ARCHIVED"
)

type GroupStatus string

const (
	GroupStatusActive    GroupStatus = "ACTIVE"
	GroupStatusCompleted GroupStatus = "COMPLETED"
	GroupStatusArchived  GroupStatus = "ARCHIVED"
)

type TeacherGroupRole string

const (
	TeacherGroupRoleLead      TeacherGroupRole = "LEAD"
	TeacherGroupRoleAssistant TeacherGroupRole = "ASSISTANT"
)

type LessonStatus string

const (
	LessonStatusPlanned   LessonStatus = "PLANNED"
	LessonStatusCompleted LessonStatus = "COMPLETED"
	LessonStatusCancelled LessonStatus = "CANCELLED"
)

type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
	AttendanceStatusLate    AttendanceStatus = "LATE"
	AttendanceStatusExcused AttendanceStatus = "EXCUSED"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive  SubscriptionStatus = "ACTIVE"
	SubscriptionStatusTrial   SubscriptionStatus = "TRIAL"
	SubscriptionStatusExpired SubscriptionStatus = "EXPIRED"
)

type Organization struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Subscription struct {
	ID             string
	OrganizationID string
	PlanCode       string
	Status         SubscriptionStatus
	ExpiresAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type User struct {
	ID               string
	OrganizationID   string
	Email            string
	PasswordHash     string
	Role             UserRole
	Status           UserStatus
	RefreshTokenHash *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Student struct {
	ID             string
	OrganizationID string
	FullName       string
	BirthDate      *time.Time
	Status         StudentStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Teacher struct {
	ID             string
	OrganizationID string
	FullName       string
	Phone          string
	Specialization *string
	IsActive       bool
	Note           *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Course struct {
	ID             string
	OrganizationID string
	Name           string
	Description    *string
	DurationMonths *int32
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Group struct {
	ID             string
	OrganizationID string
	CourseID       string
	Name           string
	ScheduleText   string
	StartDate      *time.Time
	EndDate        *time.Time
	Status         GroupStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type TeacherGroup struct {
	ID             string
	OrganizationID string
	GroupID        string
	TeacherID      string
	Role           TeacherGroupRole
	CreatedAt      time.Time
}

type Enrollment struct {
	ID             string
	OrganizationID string
	GroupID        string
	StudentID      string
	JoinedAt       time.Time
	LeftAt         *time.Time
}

type LessonSession struct {
	ID             string
	OrganizationID string
	GroupID        string
	TeacherID      string
	Date           time.Time
	Topic          *string
	Notes          *string
	Status         LessonStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Attendance struct {
	ID              string
	OrganizationID  string
	LessonSessionID string
	StudentID       string
	Status          AttendanceStatus
	Comment         *string
	CreatedAt       time.Time
}
