package model

import "time"

// UserRole separates scanner-station operators from marking/identifying
// worker clients.
type UserRole string

const (
	RoleOperator UserRole = "OPERATOR"
	RoleWorker   UserRole = "WORKER"
)

// User is an authenticated account: an operator at the scanner station
// or a worker running a marking/identification client.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest is the payload for username/password login.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=64"`
	Password string `json:"password" binding:"required,min=6"`
}
