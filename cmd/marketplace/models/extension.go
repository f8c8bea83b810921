package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// ExtensionType classifies a submitted extension
type ExtensionType string

const (
	TypeMCPServer    ExtensionType = "mcp-server"
	TypeSlashCommand ExtensionType = "slash-command"
	TypeHook         ExtensionType = "hook"
	TypeTheme        ExtensionType = "theme"
	TypeWebView      ExtensionType = "web-view"
	TypePlugin       ExtensionType = "plugin"
	TypeFork         ExtensionType = "fork"
	TypeTool         ExtensionType = "tool"
)

// ExtensionTypes is the closed set of valid extension types
var ExtensionTypes = []ExtensionType{
	TypeMCPServer, TypeSlashCommand, TypeHook, TypeTheme,
	TypeWebView, TypePlugin, TypeFork, TypeTool,
}

// Valid reports whether t is a member of the closed type set
func (t ExtensionType) Valid() bool {
	for _, known := range ExtensionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ExtensionStatus represents the review lifecycle state
type ExtensionStatus string

const (
	StatusPending  ExtensionStatus = "pending"
	StatusApproved ExtensionStatus = "approved"
	StatusRejected ExtensionStatus = "rejected"
)

// Valid reports whether s is a known status
func (s ExtensionStatus) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// productIDPattern: lowercase letters and hyphens, starting and ending
// with a letter; single letters allowed
var productIDPattern = regexp.MustCompile(`^[a-z][a-z-]*[a-z]$|^[a-z]$`)

// ValidProductID reports whether id matches the product id format
func ValidProductID(id string) bool {
	return productIDPattern.MatchString(id)
}

// Author identifies the submitting user, captured at submission time
type Author struct {
	UserID string `db:"author_user_id" json:"userId"`
	Name   string `db:"author_name" json:"name"`
	Email  string `db:"author_email" json:"email"`
}

// Extension represents a submitted artifact record
// Maps to: extensions table
type Extension struct {
	ID uuid.UUID `db:"id" json:"id"`

	// Unique product identifier, reserved forever across all statuses
	ProductID string `db:"product_id" json:"productId"`

	Type        ExtensionType `db:"type" json:"type"`
	DisplayName string        `db:"display_name" json:"displayName"`
	Description string        `db:"description" json:"description"`
	RepoURL     string        `db:"repo_url" json:"repoUrl"`
	HomepageURL *string       `db:"homepage_url" json:"homepageUrl,omitempty"`
	Tags        []string      `db:"tags" json:"tags"`

	// Installation instructions (markdown)
	Installation string `db:"installation" json:"installation"`

	Author Author          `json:"author"`
	Status ExtensionStatus `db:"status" json:"status"`

	// Review fields, populated only by approve/reject
	RejectionReason *string    `db:"rejection_reason" json:"rejectionReason,omitempty"`
	ReviewedAt      *time.Time `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewedBy      *string    `db:"reviewed_by" json:"reviewedBy,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// StatusCounts aggregates extensions by review state
type StatusCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

// StatusAfterEdit returns the status an extension takes after an author
// edit, and whether the review fields should be cleared.
//
// Approved extensions always drop back to pending for re-review. Rejected
// extensions keep their status and rejection reason unless resubmitOnEdit
// is set, in which case an edit counts as a resubmission.
func StatusAfterEdit(current ExtensionStatus, resubmitOnEdit bool) (ExtensionStatus, bool) {
	switch current {
	case StatusApproved:
		return StatusPending, true
	case StatusRejected:
		if resubmitOnEdit {
			return StatusPending, true
		}
		return StatusRejected, false
	default:
		return current, false
	}
}
