package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleEmployer  Role = "employer"
	RoleCandidate Role = "candidate"
)

func (r Role) Valid() bool {
	return r == RoleEmployer || r == RoleCandidate
}

type User struct {
	ID        int64
	Name      string
	Email     string
	PassHash  []byte
	Role      Role
	CreatedAt time.Time
}

// UserSummary is the public projection of a user embedded in other resources.
type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// RefreshToken is one link of a rotation chain. Only the SHA-256 of the raw
// secret is ever stored.
type RefreshToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	UserAgent string
	IP        string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

func (t RefreshToken) Valid(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}

// ClientInfo is the advisory fingerprint recorded with a refresh token.
type ClientInfo struct {
	UserAgent string
	IP        string
}

// Caller is the authenticated identity of the current request.
type Caller struct {
	UserID    int64
	Role      Role
	TokenID   string
	ExpiresAt time.Time
}

type JobType string

const (
	JobFullTime   JobType = "full_time"
	JobPartTime   JobType = "part_time"
	JobContract   JobType = "contract"
	JobInternship JobType = "internship"
)

// ParseJobType accepts "Full-Time", "full_time" and similar spellings.
func ParseJobType(s string) (JobType, bool) {
	t := JobType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))

	switch t {
	case JobFullTime, JobPartTime, JobContract, JobInternship:
		return t, true
	}

	return "", false
}

type JobPost struct {
	ID          int64       `json:"id"`
	EmployerID  int64       `json:"employer_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	JobType     JobType     `json:"job_type"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Employer    UserSummary `json:"employer"`
}

// JobPatch carries the fields of a partial job update; nil means unchanged.
type JobPatch struct {
	Title       *string
	Description *string
	Location    *string
	JobType     *JobType
}

type JobSort string

const (
	SortCreatedAt JobSort = "created_at"
	SortTitle     JobSort = "title"
	SortLocation  JobSort = "location"
)

type JobFilter struct {
	Keyword    string
	Location   string
	JobType    JobType
	EmployerID int64
	Sort       JobSort
	Desc       bool
	Page       int
	PerPage    int
}

type Application struct {
	ID                 int64
	CandidateID        int64
	JobID              int64
	CoverLetter        string
	ResumePath         string
	ResumeOriginalName string
	CreatedAt          time.Time
}

// ApplicationDetails is an application with its job and candidate loaded.
type ApplicationDetails struct {
	Application
	Job       JobPost
	Candidate UserSummary
}

type Page struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

func NewPage(page, perPage, total int) Page {
	last := 1
	if perPage > 0 && total > 0 {
		last = (total + perPage - 1) / perPage
	}

	return Page{
		CurrentPage: page,
		LastPage:    last,
		PerPage:     perPage,
		Total:       total,
	}
}

// Offset returns the row offset of a 1-based page.
func Offset(page, perPage int) int {
	if page < 1 {
		return 0
	}

	return (page - 1) * perPage
}

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
