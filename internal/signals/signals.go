package signals

import (
	"context"

	"github.com/maniartech/signals"
)

// TokenSetupData contains data associated with the token setup signal
type TokenSetupData struct {
	Success bool
}

// SyncCompletedData contains data associated with a finished sync pass
type SyncCompletedData struct {
	// Target is "assignments" or "schedule"
	Target string
	// Synced is the number of objects created or updated
	Synced  int
	Success bool
}

// PreferencesChangedData is emitted when sync preferences are updated
type PreferencesChangedData struct{}

// Signal definitions using generics
var TokenSetup = signals.New[TokenSetupData]()
var SyncCompleted = signals.New[SyncCompletedData]()
var PreferencesChanged = signals.New[PreferencesChangedData]()

// EmitTokenSetup emits a signal when a token is successfully set up
func EmitTokenSetup(ctx context.Context, success bool) {
	TokenSetup.Emit(ctx, TokenSetupData{Success: success})
}

// EmitSyncCompleted emits a signal when a sync pass finishes
func EmitSyncCompleted(ctx context.Context, target string, synced int, success bool) {
	SyncCompleted.Emit(ctx, SyncCompletedData{
		Target:  target,
		Synced:  synced,
		Success: success,
	})
}

// EmitPreferencesChanged emits a signal when sync preferences are updated
func EmitPreferencesChanged(ctx context.Context) {
	PreferencesChanged.Emit(ctx, PreferencesChangedData{})
}

// OnTokenSetup registers a handler for token setup events
func OnTokenSetup(handler func(ctx context.Context, data TokenSetupData), key ...string) {
	if len(key) > 0 {
		TokenSetup.AddListener(handler, key[0])
	} else {
		TokenSetup.AddListener(handler)
	}
}

// OnSyncCompleted registers a handler for sync completion events
func OnSyncCompleted(handler func(ctx context.Context, data SyncCompletedData), key ...string) {
	if len(key) > 0 {
		SyncCompleted.AddListener(handler, key[0])
	} else {
		SyncCompleted.AddListener(handler)
	}
}

// OnPreferencesChanged registers a handler for preference change events
func OnPreferencesChanged(handler func(ctx context.Context, data PreferencesChangedData), key ...string) {
	if len(key) > 0 {
		PreferencesChanged.AddListener(handler, key[0])
	} else {
		PreferencesChanged.AddListener(handler)
	}
}
