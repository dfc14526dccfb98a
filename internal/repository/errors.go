package repository

import "errors"

// Common repository errors
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrColumnNotFound  = errors.New("column not found")
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrEpicNotFound    = errors.New("epic not found")
	ErrRoleNotFound    = errors.New("role not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrNameConflict is returned when a name is already taken inside a project
	ErrNameConflict = errors.New("name already exists in project")

	// ErrNotMember is returned when the caller is not in the project's member list
	ErrNotMember = errors.New("not a member of this project")

	// ErrPermissionDenied is returned when none of the caller's roles grants a permission
	ErrPermissionDenied = errors.New("permission denied")

	// ErrAlreadyMember is returned when inviting an email that is already a member
	ErrAlreadyMember = errors.New("already a member of this project")

	// ErrMemberNotFound is returned when removing an email the project does not contain
	ErrMemberNotFound = errors.New("member not found")

	// ErrLastMember is returned when removing the only member of a project
	ErrLastMember = errors.New("cannot remove the last member of a project")

	// ErrFallbackColumn is returned when tickets cannot be moved to the fallback column
	ErrFallbackColumn = errors.New("fallback column unavailable")

	// ErrInvalidMove is returned when a column is asked to follow itself
	ErrInvalidMove = errors.New("a column cannot be placed before itself")

	// ErrDefaultRole is returned when an operation would remove or rename the Default role
	ErrDefaultRole = errors.New("the Default role cannot be removed or renamed")

	// ErrInvalidResetToken is returned for unknown or expired password reset tokens
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)
