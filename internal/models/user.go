package models

import "time"

// UserProfile is a registered account. The password hash never leaves the store.
type UserProfile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Session backs a login. Deleting the row revokes every credential issued for it.
type Session struct {
	ID            string    `json:"id"`
	UserProfileID string    `json:"userProfileId"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}
