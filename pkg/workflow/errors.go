package workflow

import "errors"

// ErrRunNotFound is returned by Iterate, Validate, and Export when run_id
// has no manifest on disk. It never mutates anything (spec.md §7).
var ErrRunNotFound = errors.New("workflow: run not found")

// ErrMaxItersReached is returned by Iterate when the next iteration number
// would exceed the resolved policy's max_iters. The manifest is left
// unchanged (spec.md §4.9/§7).
var ErrMaxItersReached = errors.New("workflow: max iterations reached")
