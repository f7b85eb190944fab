package users

import (
	"fmt"
	"strings"
	"time"

	"unicode"
)

// RoleType represents a user's role tag as assigned by the backend.
type RoleType string

const (
	RoleCustomer      RoleType = "customer"       // Regular shopper/borrower
	RoleLibraryAdmin  RoleType = "library_admin"  // Manages catalog and borrow requests
	RoleDeliveryAdmin RoleType = "delivery_admin" // Manages delivery assignments
)

// KnownRoles lists the closed set of role tags the backend may return.
var KnownRoles = []RoleType{RoleCustomer, RoleLibraryAdmin, RoleDeliveryAdmin}

// Profile is the cached user profile attached to an authenticated session.
// The backend is authoritative; the client only reads and caches it.
type Profile struct {
	ID        string `json:"id,omitempty"`         // Unique identifier for the user
	Email     string `json:"email,omitempty"`      // User's email address - immutable once set
	FirstName string `json:"first_name,omitempty"` // First name of the user
	LastName  string `json:"last_name,omitempty"`  // Last name of the user
	Phone     string `json:"phone_number,omitempty"`

	// Address fields used by delivery workflows
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`

	Role RoleType `json:"user_type,omitempty"` // One of KnownRoles

	Verified bool `json:"is_verified,omitempty"` // Has the user verified their email
	Active   bool `json:"is_active,omitempty"`   // Has the account been deactivated

	DateJoined time.Time `json:"date_joined,omitempty"` // When the user registered
	LastLogin  time.Time `json:"last_login,omitempty"`  // Last successful login

	Locale string `json:"preferred_language,omitempty"` // Locale preference, e.g. "en", "ar"
}

// FullName returns the user's display name.
func (p *Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// IsCustomer reports whether the profile carries the customer role.
func (p *Profile) IsCustomer() bool {
	return p.Role == RoleCustomer
}

// IsLibraryAdmin reports whether the profile carries the library admin role.
func (p *Profile) IsLibraryAdmin() bool {
	return p.Role == RoleLibraryAdmin
}

// IsDeliveryAdmin reports whether the profile carries the delivery admin role.
func (p *Profile) IsDeliveryAdmin() bool {
	return p.Role == RoleDeliveryAdmin
}

// ValidRole reports whether role is one of the closed set of known roles.
func ValidRole(role RoleType) bool {
	for _, r := range KnownRoles {
		if r == role {
			return true
		}
	}
	return false
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}
