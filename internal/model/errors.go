package model

import "errors"

// Error kinds. Every error returned by a data-access operation wraps exactly
// one of these, so callers can branch with errors.Is on the kind and still
// inspect the precise cause.
var (
	ErrValidation     = errors.New("validation error")
	ErrAuthentication = errors.New("authentication required")
	ErrAuthorization  = errors.New("not authorized")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrTransient      = errors.New("transient failure")
)

// Error is a coded domain error. It unwraps to its Kind.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Unwrap returns the error kind.
func (e *Error) Unwrap() error { return e.Kind }

var registry = map[string]*Error{}

func define(kind error, code, message string) *Error {
	e := &Error{Kind: kind, Code: code, Message: message}
	registry[code] = e
	return e
}

// Validation errors.
var (
	ErrTitleRequired         = define(ErrValidation, "TITLE_REQUIRED", "title is required")
	ErrTitleTooLong          = define(ErrValidation, "TITLE_TOO_LONG", "title is too long")
	ErrDescriptionTooLong    = define(ErrValidation, "DESCRIPTION_TOO_LONG", "description is too long")
	ErrInvalidStatus         = define(ErrValidation, "INVALID_STATUS", "status must be pending or completed")
	ErrInvalidStatusFilter   = define(ErrValidation, "INVALID_STATUS_FILTER", "status filter must be all, pending or completed")
	ErrInvalidPage           = define(ErrValidation, "INVALID_PAGE", "page must be a positive integer")
	ErrInvalidPageSize       = define(ErrValidation, "INVALID_PAGE_SIZE", "page_size is out of range")
	ErrSearchTooLong         = define(ErrValidation, "SEARCH_TOO_LONG", "search string is too long")
	ErrEmptyPatch            = define(ErrValidation, "EMPTY_PATCH", "no fields to update")
	ErrInvalidID             = define(ErrValidation, "INVALID_ID", "id must be a UUID")
	ErrNameTooLong           = define(ErrValidation, "NAME_TOO_LONG", "name is too long")
	ErrInvalidAvatarURL      = define(ErrValidation, "INVALID_AVATAR_URL", "avatar_url must be an absolute http(s) URL")
	ErrAvatarContentType     = define(ErrValidation, "AVATAR_INVALID_TYPE", "avatar must be an image")
	ErrAvatarTooLarge        = define(ErrValidation, "AVATAR_TOO_LARGE", "avatar exceeds the 5 MiB limit")
	ErrAvatarEmpty           = define(ErrValidation, "AVATAR_EMPTY", "avatar is empty")
	ErrInvalidEmail          = define(ErrValidation, "INVALID_EMAIL", "email address is invalid")
	ErrWeakPassword          = define(ErrValidation, "WEAK_PASSWORD", "password must be between 8 and 128 characters")
	ErrInvalidRequestBody    = define(ErrValidation, "INVALID_REQUEST", "request body is malformed")
	ErrRefreshTokenMalformed = define(ErrValidation, "INVALID_REFRESH_TOKEN", "refresh token is malformed")
)

// Authentication errors.
var (
	ErrNoSession          = define(ErrAuthentication, "NO_SESSION", "no active session")
	ErrInvalidCredentials = define(ErrAuthentication, "INVALID_CREDENTIALS", "invalid email or password")
	ErrSessionExpired     = define(ErrAuthentication, "SESSION_EXPIRED", "session expired or revoked")
	ErrInvalidToken       = define(ErrAuthentication, "INVALID_TOKEN", "access token is invalid")
)

// Authorization, not-found and conflict errors.
var (
	ErrOwnerMismatch    = define(ErrAuthorization, "OWNER_MISMATCH", "row owner does not match the caller")
	ErrTaskNotFound     = define(ErrNotFound, "TASK_NOT_FOUND", "task not found")
	ErrObjectNotFound   = define(ErrNotFound, "OBJECT_NOT_FOUND", "object not found")
	ErrEmailTaken       = define(ErrConflict, "EMAIL_TAKEN", "email is already registered")
	ErrStoreUnavailable = define(ErrTransient, "UNAVAILABLE", "service temporarily unavailable")
)

// LookupCode returns the predefined error for a wire code.
func LookupCode(code string) (*Error, bool) {
	e, ok := registry[code]
	return e, ok
}

// Code returns the wire code for err, or "" when err carries none.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Operation names a data-access call for retry decisions.
type Operation string

const (
	OpListTasks     Operation = "list_tasks"
	OpGetTask       Operation = "get_task"
	OpCountTasks    Operation = "count_tasks"
	OpCreateTask    Operation = "create_task"
	OpUpdateTask    Operation = "update_task"
	OpToggleTask    Operation = "toggle_task"
	OpDeleteTask    Operation = "delete_task"
	OpGetProfile    Operation = "get_profile"
	OpUpsertProfile Operation = "upsert_profile"
	OpUploadAvatar  Operation = "upload_avatar"
)

// Retryable reports whether op may be re-invoked after a transient error
// without risking a duplicate effect. Toggle is excluded: a replay flips the
// status back.
func Retryable(op Operation) bool {
	switch op {
	case OpListTasks, OpGetTask, OpCountTasks, OpDeleteTask, OpGetProfile, OpUpsertProfile, OpUpdateTask:
		return true
	default:
		return false
	}
}
