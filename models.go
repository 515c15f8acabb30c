package mediagrab

import (
	"time"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleGuest is the role of an unauthenticated visitor
	RoleGuest UserRole = "guest"
	// RoleUser is a regular account (download, convert)
	RoleUser UserRole = "user"
	// RoleAdmin is an admin account (manage users, payments, downloads)
	RoleAdmin UserRole = "admin"
)

// User is the profile record the backend returns from /users/me.
// It is owned by the SessionStore and replaced wholesale on every auth
// transition; nothing mutates it in place.
type User struct {
	ID               int64      `json:"id,omitempty"`
	Email            string     `json:"email,omitempty"`
	Username         string     `json:"username,omitempty"`
	Role             UserRole   `json:"role,omitempty"`
	Active           bool       `json:"is_active,omitempty"`
	EmailVerified    bool       `json:"is_email_verified,omitempty"`
	SubscriptionType string     `json:"subscription_type,omitempty"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
}

// IsAdmin reports whether the profile carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Download is one entry of the account's download history.
type Download struct {
	ID         int64      `json:"id,omitempty"`
	UserID     int64      `json:"user_id,omitempty"`
	VideoID    string     `json:"video_id,omitempty"`
	Title      string     `json:"title,omitempty"`
	URL        string     `json:"url,omitempty"`
	Thumbnail  string     `json:"thumbnail,omitempty"`
	Format     string     `json:"format,omitempty"`
	Resolution string     `json:"resolution,omitempty"`
	Filesize   int64      `json:"filesize,omitempty"`
	Status     string     `json:"status,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// AdminStats is the service-wide summary shown on the admin dashboard.
type AdminStats struct {
	TotalUsers          int64            `json:"total_users"`
	ActiveSubscriptions int64            `json:"active_subscriptions"`
	TotalRevenue        float64          `json:"total_revenue"`
	TotalDownloads      int64            `json:"total_downloads"`
	SuccessfulDownloads int64            `json:"successful_downloads"`
	TrialUsers          int64            `json:"trial_users"`
	SubscriptionTypes   map[string]int64 `json:"subscription_types,omitempty"`
}
