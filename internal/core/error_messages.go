// Package core provides the faceted filter engine.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Codes are grouped by category:
//
// # Load Errors (LOAD001-LOAD099)
//
//	LOAD001 - Missing column: the source is missing an expected column
//	          Patterns: "missing required column"
//
//	LOAD002 - Empty source: the source has no header row
//	          Patterns: "empty file"
//
//	LOAD003 - Unreadable source: the file or table could not be opened
//	          Patterns: "no such file", "file does not exist", "connection refused"
//
// # Filter Errors (FLT001-FLT099)
//
//	FLT001 - Unknown facet: the request named a facet that does not exist
//	         Patterns: "unknown facet"
//
//	FLT002 - Invalid mode: the combination mode is not exclusive/inclusive
//	         Patterns: "invalid combination mode"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Export failed: the spreadsheet could not be written
//	         Matched by type (*ExportError)
//
//	EXP002 - Export busy: all export slots are in use
//	         Patterns: "too many exports"
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session limit: the server holds too many sessions
//	         Patterns: "session limit"
//	SES002 - Session closed: the session expired mid-request
//	         Patterns: "session closed"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: too many requests
//	          Patterns: "rate limit"
//
// # Fallback
//
//	ERR000 - Unknown error
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage contains a user-friendly error message with an action and code.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is ordered: the first match wins.
var errorPatterns = []errorPattern{
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "The data source is missing an expected column",
			Action:  "Check the column headers in the source file",
			Code:    "LOAD001",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The data source is empty",
			Action:  "Provide a file with a header row and data rows",
			Code:    "LOAD002",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "The data source could not be opened",
			Action:  "Check DATASET_SOURCE points at a readable file",
			Code:    "LOAD003",
		},
	},
	{
		pattern: "file does not exist",
		msg: UserMessage{
			Message: "The data source could not be opened",
			Action:  "Check DATASET_SOURCE points at a readable file",
			Code:    "LOAD003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the database",
			Action:  "Please try again in a few moments",
			Code:    "LOAD003",
		},
	},
	{
		pattern: "unknown facet",
		msg: UserMessage{
			Message: "That filter does not exist",
			Action:  "Reload the page to get the current filters",
			Code:    "FLT001",
		},
	},
	{
		pattern: "invalid combination mode",
		msg: UserMessage{
			Message: "Unknown filter mode",
			Action:  "Choose Exclusive or Inclusive",
			Code:    "FLT002",
		},
	},
	{
		pattern: "too many exports",
		msg: UserMessage{
			Message: "The server is busy preparing other downloads",
			Action:  "Please wait a moment and try again",
			Code:    "EXP002",
		},
	},
	{
		pattern: "session limit",
		msg: UserMessage{
			Message: "Too many people are using the dashboard right now",
			Action:  "Please try again in a few minutes",
			Code:    "SES001",
		},
	},
	{
		pattern: "session closed",
		msg: UserMessage{
			Message: "Your session has expired",
			Action:  "Reload the page to start a new session",
			Code:    "SES002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please slow down and try again in a minute",
			Code:    "RATE001",
		},
	},
}

var exportFailedMessage = UserMessage{
	Message: "The spreadsheet could not be created",
	Action:  "Try again or narrow the filter",
	Code:    "EXP001",
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches the known patterns (case-insensitive) and returns the first
// match, or a generic fallback with code ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	// Export failures wrap arbitrary writer errors, so match on type first.
	var exportErr *ExportError
	if errors.As(err, &exportErr) && !errors.Is(err, ErrExportBusy) {
		return exportFailedMessage
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

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err and keeps the original for logging via Unwrap.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
