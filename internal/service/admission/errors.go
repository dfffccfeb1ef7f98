package admission

import "errors"

// ErrImportInProgress is returned when another import or copy into the same
// list holds the list lock.
var ErrImportInProgress = errors.New("an import into this list is already running")

// ErrUnsupportedFormat is returned for import files that are neither CSV nor JSON.
var ErrUnsupportedFormat = errors.New("unsupported import format")

// ErrMissingEmailColumn is returned for CSV files without an email header.
var ErrMissingEmailColumn = errors.New("csv header has no email column")
