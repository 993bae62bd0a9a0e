package core

// error_messages.go maps errors to user-facing messages with support codes.
//
// Codes are grouped by category:
//
//	REQ001-REQ099   request errors (lookups, bodies, conflicts)
//	VAL001-VAL099   row validation
//	FILE001-FILE099 uploaded file handling
//	UPL001-UPL099   import lifecycle
//	DB001-DB099     database driver failures
//	ERR000          fallback; check the logs for the technical error
//
// Sentinel errors are matched first with errors.Is. Driver errors carry no
// sentinel, so they fall back to case-insensitive substring patterns. In
// both tables the first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorTarget struct {
	target error
	msg    UserMessage
}

// errorTargets is checked before the patterns. Entity-specific errors come
// before the generic ones they wrap.
var errorTargets = []errorTarget{
	{ErrCatalogNotFound, UserMessage{
		Message: "Catalog not found",
		Action:  "Check the catalog id",
		Code:    "REQ001",
	}},
	{ErrProductNotFound, UserMessage{
		Message: "Product not found",
		Action:  "Check the product id",
		Code:    "REQ002",
	}},
	{ErrNotFound, UserMessage{
		Message: "Record not found",
		Action:  "Check the id",
		Code:    "REQ003",
	}},
	{ErrCatalogInUse, UserMessage{
		Message: "Catalog still has products",
		Action:  "Delete or move its products first",
		Code:    "REQ004",
	}},
	{ErrUnsupportedMediaType, UserMessage{
		Message: "File must be text/csv",
		Action:  "Upload the file with content type text/csv",
		Code:    "FILE001",
	}},
	{ErrStructuralParse, UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure the file is comma-separated with a header row",
		Code:    "FILE002",
	}},
	{ErrEmptyFile, UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a CSV file with data rows",
		Code:    "FILE003",
	}},
	{ErrNoValidRows, UserMessage{
		Message: "No row in the file passed validation",
		Action:  "Review the rejected rows and fix the data",
		Code:    "FILE004",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE005",
	}},
	{ErrTooManyRows, UserMessage{
		Message: "File has too many rows",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE006",
	}},
	{ErrTooManyUploads, UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL001",
	}},
	{ErrValidation, UserMessage{
		Message: "Invalid input",
		Action:  "Correct the highlighted fields and retry",
		Code:    "VAL001",
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
var errorPatterns = []errorPattern{
	{
		pattern: "violates check constraint",
		msg: UserMessage{
			Message: "A value is outside the allowed range",
			Action:  "Check prices are non-negative and within range",
			Code:    "DB001",
		},
	},
	{
		pattern: "numeric field overflow",
		msg: UserMessage{
			Message: "A number is too large",
			Action:  "Prices are limited to 10 digits before the decimal point",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "UPL003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try again later",
			Code:    "DB006",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message. Sentinels are
// matched first, then text patterns; ERR000 is the fallback.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, et := range errorTargets {
		if errors.Is(err, et.target) {
			return et.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
