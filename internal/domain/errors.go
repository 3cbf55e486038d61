package domain

import "errors"

// ErrDuplicateEntry reports a unique-constraint violation on external_id or
// slug, typically a race with a concurrent writer creating the same entry.
var ErrDuplicateEntry = errors.New("duplicate catalog entry")

// ErrNoMorePages signals that a requested page is past the end of the
// upstream catalog. It stops pagination normally and is never retried.
var ErrNoMorePages = errors.New("no more pages")
