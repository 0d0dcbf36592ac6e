package models

import "time"

// Branch represents an office location that owns expenses. NotifyEmail is
// where due reminders and overdue escalations for the branch are sent.
type Branch struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	NotifyEmail string    `json:"notify_email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
