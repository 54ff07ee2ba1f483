package models

import (
	"fmt"
	"time"
)

// Action is the tag of an activity entry.
type Action string

const (
	ActionUpload Action = "UPLOAD"
	ActionDelete Action = "DELETE"
	ActionLogin  Action = "LOGIN"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionUpload, ActionDelete, ActionLogin:
		return true
	}
	return false
}

// ActivityEntry is one immutable audit record.
type ActivityEntry struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Action    Action    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

func UploadDetails(filename string) string { return fmt.Sprintf("Uploaded %s", filename) }

func DeleteDetails(filename string) string { return fmt.Sprintf("Deleted %s", filename) }

const LoginDetails = "Biometric verification success"
