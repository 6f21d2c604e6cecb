package syncer

import "time"

// Assignment is the sync input for one assignment, derived from the LMS
// assignment entity plus its owning course's name. The fetching layer owns
// the data; this subsystem never persists it.
type Assignment struct {
	ID          string
	Title       string
	CourseName  string
	Description string // HTML fragment, stripped before mirroring
	StartTime   time.Time
	DueTime     time.Time
	Submitted   bool
	SubmitTime  *time.Time
}
