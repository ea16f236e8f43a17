package core

// error_messages.go: error codes reference.
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Authentication Errors (AUTH001-AUTH099)
//
//	AUTH001 - Session rejected: The analytics service rejected the session
//	          Action: Please sign in again
//	          Match: upstream 401/403
//
//	AUTH002 - Session expired: The dashboard session was not found
//	          Action: Please sign in again
//	          Patterns: "session not found"
//
//	AUTH003 - Invalid credentials: Email or password was not accepted
//	          Action: Check your credentials and try again
//	          Patterns: "invalid credentials", "bad credentials"
//
// # Upstream API Errors (API001-API099)
//
//	API001 - Service unavailable: The analytics service returned an error
//	         Action: Please try again in a few moments
//	         Match: upstream 5xx
//
//	API002 - Not found: The requested data does not exist
//	         Action: Check the link or go back to the dashboard
//	         Match: upstream 404
//
//	API003 - Bad response: The analytics service sent data the dashboard could not read
//	         Action: Please try again or contact support
//	         Patterns: "malformed upstream response"
//
//	API004 - Timeout: The analytics service took too long to respond
//	         Action: Please try again
//	         Patterns: "context deadline exceeded", "timeout"
//
//	API005 - Unreachable: Unable to reach the analytics service
//	         Action: Please try again in a few moments
//	         Patterns: "connection refused", "no such host"
//
// # Payload Errors (PAY001-PAY099)
//
//	PAY001 - Invalid payload: Dashboard data is not a JSON object
//	         Action: Please try again or contact support
//	         Patterns: "invalid payload"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Unknown format: The export format is not supported
//	         Action: Choose CSV, PDF or Excel
//	         Patterns: "unknown export format"
//
//	EXP002 - PDF unavailable: PDF export is not configured on this server
//	         Action: Export as CSV or Excel instead
//	         Patterns: "pdf export unavailable"
//
//	EXP003 - Export busy: Too many exports are being rendered
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent renders"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Matching
//
// Upstream status errors are classified by status code first. Everything
// else is matched case-insensitively against the patterns with
// strings.Contains, and the first match wins, so more specific patterns
// come before general ones.

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/roledash/internal/upstream"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgSessionRejected = UserMessage{
		Message: "The analytics service rejected your session",
		Action:  "Please sign in again",
		Code:    "AUTH001",
	}
	msgUpstreamDown = UserMessage{
		Message: "The analytics service returned an error",
		Action:  "Please try again in a few moments",
		Code:    "API001",
	}
	msgNotFound = UserMessage{
		Message: "The requested data does not exist",
		Action:  "Check the link or go back to the dashboard",
		Code:    "API002",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Authentication (AUTH002-AUTH003)
	// =========================================================================
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Your dashboard session has expired",
			Action:  "Please sign in again",
			Code:    "AUTH002",
		},
	},
	{
		pattern: "invalid credentials",
		msg: UserMessage{
			Message: "Email or password was not accepted",
			Action:  "Check your credentials and try again",
			Code:    "AUTH003",
		},
	},
	{
		pattern: "bad credentials",
		msg: UserMessage{
			Message: "Email or password was not accepted",
			Action:  "Check your credentials and try again",
			Code:    "AUTH003",
		},
	},

	// =========================================================================
	// Upstream API (API003-API005)
	// =========================================================================
	{
		pattern: "malformed upstream response",
		msg: UserMessage{
			Message: "The analytics service sent data the dashboard could not read",
			Action:  "Please try again or contact support",
			Code:    "API003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The analytics service took too long to respond",
			Action:  "Please try again",
			Code:    "API004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The analytics service took too long to respond",
			Action:  "Please try again",
			Code:    "API004",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the analytics service",
			Action:  "Please try again in a few moments",
			Code:    "API005",
		},
	},
	{
		pattern: "no such host",
		msg: UserMessage{
			Message: "Unable to reach the analytics service",
			Action:  "Please try again in a few moments",
			Code:    "API005",
		},
	},

	// =========================================================================
	// Payload (PAY001)
	// =========================================================================
	{
		pattern: "invalid payload",
		msg: UserMessage{
			Message: "Dashboard data is not in the expected format",
			Action:  "Please try again or contact support",
			Code:    "PAY001",
		},
	},

	// =========================================================================
	// Export (EXP001-EXP003)
	// =========================================================================
	{
		pattern: "unknown export format",
		msg: UserMessage{
			Message: "The export format is not supported",
			Action:  "Choose CSV, PDF or Excel",
			Code:    "EXP001",
		},
	},
	{
		pattern: "pdf export unavailable",
		msg: UserMessage{
			Message: "PDF export is not configured on this server",
			Action:  "Export as CSV or Excel instead",
			Code:    "EXP002",
		},
	},
	{
		pattern: "too many concurrent renders",
		msg: UserMessage{
			Message: "Too many exports are being rendered",
			Action:  "Please wait a moment and try again",
			Code:    "EXP003",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Upstream status errors are classified by code; other errors are matched
// against the known patterns. If nothing matches, a generic fallback
// message with code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	switch code := upstream.StatusCode(err); {
	case upstream.IsAuthFailure(err):
		return msgSessionRejected
	case code == http.StatusNotFound:
		return msgNotFound
	case code >= 500:
		return msgUpstreamDown
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	if upstream.StatusCode(err) != 0 {
		return msgUpstreamDown
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

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
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

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
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
