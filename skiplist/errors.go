package skiplist

import "errors"

// ErrInvalidArgument is returned by New when a constructor argument is out
// of bounds: a negative maxLevels, promotionProbability outside [0, 1], a
// negative maxSize other than Unbounded, or a required collaborator
// (comparator, orchestrator) is nil. A zero maxLevels, promotionProbability
// or maxSize is not an error; New substitutes the default.
var ErrInvalidArgument = errors.New("skiplist: invalid argument")

// ErrNotFoundOrDeleted is returned by Update when the key has no live
// (inserted and not logically deleted) entry.
var ErrNotFoundOrDeleted = errors.New("skiplist: key not found or deleted")
