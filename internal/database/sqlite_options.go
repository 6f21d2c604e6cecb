package database

import (
	"net/url"
	"strconv"
)

// SynchronousMode represents the available synchronous settings for SQLite
type SynchronousMode string

const (
	SynchronousOff    SynchronousMode = "OFF"
	SynchronousNormal SynchronousMode = "NORMAL"
	SynchronousFull   SynchronousMode = "FULL"
)

// JournalMode represents the available journal modes for SQLite
type JournalMode string

const (
	JournalDelete JournalMode = "DELETE"
	JournalMemory JournalMode = "MEMORY"
	JournalWAL    JournalMode = "WAL"
)

// CacheMode represents the available cache modes for SQLite
type CacheMode string

const (
	CacheShared  CacheMode = "shared"
	CachePrivate CacheMode = "private"
)

// SQLiteOptions contains configuration options for the SQLite connection.
// Mode and Cache travel in the DSN; the remaining settings are applied as
// PRAGMA statements once the connection is open.
type SQLiteOptions struct {
	// Path to the SQLite database file, or ":memory:"
	Path string

	Mode        string // ro, rw, rwc, memory
	Cache       CacheMode
	Journal     JournalMode
	Synchronous SynchronousMode
	ForeignKeys bool
	BusyTimeout int // milliseconds
	CacheSize   int // KB, negative for number of pages
}

// NewDefaultOptions creates SQLiteOptions with recommended defaults
func NewDefaultOptions(path string) SQLiteOptions {
	return SQLiteOptions{
		Path:        path,
		Mode:        "rwc",
		Cache:       CachePrivate,
		Journal:     JournalWAL,
		Synchronous: SynchronousNormal,
		ForeignKeys: true,
		BusyTimeout: 5000,
	}
}

// buildConnectionString generates the DSN for the options. Only parameters
// the driver understands in URI form are included here.
func (opts *SQLiteOptions) buildConnectionString() string {
	params := url.Values{}
	if opts.Mode != "" {
		params.Set("mode", opts.Mode)
	}
	if opts.Cache != "" {
		params.Set("cache", string(opts.Cache))
	}
	if opts.BusyTimeout > 0 {
		params.Set("_timeout", strconv.Itoa(opts.BusyTimeout))
	}

	connStr := "file:" + opts.Path
	if encoded := params.Encode(); encoded != "" {
		connStr += "?" + encoded
	}
	return connStr
}
