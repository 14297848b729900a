package models

import (
	"errors"
	"time"
)

// SubmissionStatus is the review state of a submission.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// SubmissionType says whether a submission proposes a new mosque or an edit
// to an existing one.
type SubmissionType string

const (
	TypeNewMosque  SubmissionType = "new_mosque"
	TypeEditMosque SubmissionType = "edit_mosque"
)

var (
	ErrInvalidStatus   = errors.New("invalid submission status")
	ErrInvalidType     = errors.New("invalid submission type")
	ErrInvalidRecordID = errors.New("invalid record id")
)

// ParseStatus checks s against the closed status set. Values outside it are
// rejected here, before they can reach a filter expression.
func ParseStatus(s string) (SubmissionStatus, error) {
	switch SubmissionStatus(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return SubmissionStatus(s), nil
	}
	return "", ErrInvalidStatus
}

// ParseType checks s against the closed submission type set.
func ParseType(s string) (SubmissionType, error) {
	switch SubmissionType(s) {
	case TypeNewMosque, TypeEditMosque:
		return SubmissionType(s), nil
	}
	return "", ErrInvalidType
}

// IsValidRecordID reports whether id has the backend's record id shape:
// exactly 15 lowercase alphanumeric characters. IDs are validated with this
// before being interpolated into any filter or path.
func IsValidRecordID(id string) bool {
	if len(id) != 15 {
		return false
	}
	for _, c := range id {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// dateTimeLayout is the backend's datetime string format.
const dateTimeLayout = "2006-01-02 15:04:05.000Z"

// NowDateTime returns the current UTC time in the backend's datetime format,
// for fields the client stamps itself (e.g. reviewed_at).
func NowDateTime() string {
	return time.Now().UTC().Format(dateTimeLayout)
}
