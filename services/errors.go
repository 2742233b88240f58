package services

import "errors"

var (
	// ErrIssueNotFound is returned when no issue has the requested id.
	ErrIssueNotFound = errors.New("issue not found")
	// ErrUserNotFound is returned when no user has the requested id.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials covers unknown email, wrong password and wrong
	// role alike, so callers cannot tell which one failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrInvalidStatus is returned for a status outside the known set.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidIssue is returned when an update does not produce a valid issue.
	ErrInvalidIssue = errors.New("invalid issue")
)
