package models

// AdminRole is the role claim value that grants admin capabilities
const AdminRole = "admin"

// AnonymousName is used when an identity carries no display name
const AnonymousName = "Anonymous"

// Identity is the resolved claim set for an authenticated request.
// A nil *Identity means the request is anonymous.
type Identity struct {
	// Subject is the stable user identifier from the identity provider
	Subject string
	Name    string
	Email   string
	Role    string
}

// IsAdmin reports whether the identity carries the admin role claim.
// A missing or unknown role defaults to non-admin.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == AdminRole
}

// DisplayName returns the identity's name, falling back to "Anonymous"
func (i *Identity) DisplayName() string {
	if i == nil || i.Name == "" {
		return AnonymousName
	}
	return i.Name
}

// ReviewedBy returns the identifier recorded on review actions:
// the admin's email when present, otherwise the subject
func (i *Identity) ReviewedBy() string {
	if i == nil {
		return ""
	}
	if i.Email != "" {
		return i.Email
	}
	return i.Subject
}
