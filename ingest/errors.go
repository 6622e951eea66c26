package ingest

import "errors"

// ErrUnreadableSource is returned when a container format is corrupt or
// cannot be parsed. Fatal for the file, but batch callers log and continue.
var ErrUnreadableSource = errors.New("ingest: unreadable source")

// ErrUnsupportedLanguage is returned when no detection patterns exist for a
// requested language. Callers degrade to generic extraction.
var ErrUnsupportedLanguage = errors.New("ingest: unsupported language")
