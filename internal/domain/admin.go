package domain

import "time"

// Admin is a back-office account. PasswordHash never leaves the store layer
// in API responses (json:"-").
type Admin struct {
	AdminID      int64     `json:"adminId"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
