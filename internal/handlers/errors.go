package handlers

// Error Codes
const (
	ErrCodeInvalidRequestBody   = "invalid_request_body"
	ErrCodeInvalidPreferences   = "invalid_preferences"
	ErrCodeAuthRequired         = "authentication_required"
	ErrCodeSyncFailed           = "sync_failed"
	ErrCodeTeardownFailed       = "teardown_failed"
	ErrCodeTimetableUnavailable = "timetable_unavailable"
	ErrCodeMethodNotAllowed     = "method_not_allowed"
	ErrCodeOAuthExchangeFailed  = "oauth_exchange_failed"
	ErrCodeUnknown              = "unknown_error"
)

// ErrorMessages maps error codes to user-friendly messages
var ErrorMessages = map[string]string{
	ErrCodeInvalidRequestBody:   "Invalid request body.",
	ErrCodeInvalidPreferences:   "Invalid preference values.",
	ErrCodeAuthRequired:         "Authentication required. Please connect your calendar first.",
	ErrCodeSyncFailed:           "Failed to sync. Please try again.",
	ErrCodeTeardownFailed:       "Failed to remove synced data. Please try again.",
	ErrCodeTimetableUnavailable: "No semester timetable is configured.",
	ErrCodeMethodNotAllowed:     "Method not allowed.",
	ErrCodeOAuthExchangeFailed:  "Failed to complete authentication. Please try again.",
	ErrCodeUnknown:              "An unknown error occurred.",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code string) string {
	if msg, ok := ErrorMessages[code]; ok {
		return msg
	}
	return ErrorMessages[ErrCodeUnknown]
}
