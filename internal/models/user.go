package models

import "time"

// Global permission tiers accepted by the admin permission endpoint.
const (
	PermissionOwner  = 1
	PermissionMember = 2
)

type User struct {
	ID            int64     `json:"id,string"`
	Email         string    `json:"email"`
	NameFirst     string    `json:"name_first"`
	NameLast      string    `json:"name_last"`
	Handle        string    `json:"handle"`
	ProfileImgURL string    `json:"profile_img_url"`
	IsGlobalOwner bool      `json:"is_global_owner"`
	PasswordHash  string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// PermissionID reports the user's global tier.
func (u *User) PermissionID() int {
	if u.IsGlobalOwner {
		return PermissionOwner
	}
	return PermissionMember
}

// UserSummary is the public projection of a user embedded in channel details.
type UserSummary struct {
	ID            int64  `json:"id,string"`
	NameFirst     string `json:"name_first"`
	NameLast      string `json:"name_last"`
	Handle        string `json:"handle"`
	ProfileImgURL string `json:"profile_img_url"`
}
