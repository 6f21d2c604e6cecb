package provider

import "errors"

// Sentinel errors every binding must translate its host's failures into.
var (
	// ErrPermissionDenied means calendar or reminder access has not been
	// granted. Fatal to the requesting sync call.
	ErrPermissionDenied = errors.New("calendar access permission denied")

	// ErrNotFound means the target event or reminder no longer exists,
	// typically because the user deleted it in the native calendar app.
	ErrNotFound = errors.New("external object not found")

	// ErrCollectionUnavailable means a previously resolved collection
	// vanished between resolution and use.
	ErrCollectionUnavailable = errors.New("collection unavailable")

	// ErrRemindersUnsupported is returned by the reminder methods of
	// bindings whose host has no reminder store.
	ErrRemindersUnsupported = errors.New("reminders not supported by this provider")
)
