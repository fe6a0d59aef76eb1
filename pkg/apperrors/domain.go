package apperrors

import (
	"net/http"
)

// ErrNotFound wraps a repository miss into a 404.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists wraps a uniqueness failure into a 409.
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusBadRequest)
}

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

// --- Ratings ---

var ErrRatingNotFound = New(
	CodeNotFound,
	"ratings",
	"Rating not found",
	http.StatusNotFound,
)

var ErrAddonNotFound = New(
	CodeNotFound,
	"addons",
	"Add-on not found",
	http.StatusNotFound,
)

var ErrVersionNotFound = New(
	CodeNotFound,
	"addons",
	"Version not found for this add-on",
	http.StatusBadRequest,
)

var ErrDuplicateRating = New(
	CodeAlreadyExists,
	"ratings",
	"You can't leave more than one review for the same version of an add-on.",
	http.StatusConflict,
)

var ErrOwnAddonRating = New(
	CodeInvalidOperation,
	"ratings",
	"You can't leave a review on your own add-on.",
	http.StatusBadRequest,
)

var ErrNotRatingAuthor = New(
	CodeForbidden,
	"ratings",
	"Only the author can modify this rating",
	http.StatusForbidden,
)

var ErrReplyNotAllowed = New(
	CodeForbidden,
	"ratings",
	"Only add-on authors can reply to ratings",
	http.StatusForbidden,
)

var ErrReplyToReply = New(
	CodeInvalidOperation,
	"ratings",
	"You can't reply to a reply.",
	http.StatusBadRequest,
)

var ErrScoreOnReply = New(
	CodeInvalidOperation,
	"ratings",
	"Replies can't have a score.",
	http.StatusBadRequest,
)

var ErrScoreRequired = New(
	CodeValidationFailed,
	"ratings",
	"A score between 1 and 5 is required.",
	http.StatusBadRequest,
)

var ErrFlagOwnRating = New(
	CodeInvalidOperation,
	"ratings",
	"You can't flag your own review.",
	http.StatusBadRequest,
)

var ErrFlagNoteRequired = New(
	CodeValidationFailed,
	"ratings",
	"A short explanation must be provided when selecting \"Other\" as a flag reason.",
	http.StatusBadRequest,
)

var ErrRatingNotDeleted = New(
	CodeInvalidStatus,
	"ratings",
	"Rating is not deleted",
	http.StatusConflict,
)

var ErrRateLimited = New(
	CodeLimitExceeded,
	"ratings",
	"Too many requests, slow down",
	http.StatusTooManyRequests,
)
