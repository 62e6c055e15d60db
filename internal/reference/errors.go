package reference

import (
	"errors"
	"fmt"

	"github.com/scentlog/scentlog-server/internal/domain"
)

// Sentinel errors returned by table operations.
var (
	ErrUnknownKind     = errors.New("unknown reference kind")
	ErrUnknownEntry    = errors.New("unknown reference entry")
	ErrDuplicate       = errors.New("reference value already exists")
	ErrEmptyValue      = errors.New("reference value is empty")
	ErrInvalidOrder    = errors.New("order is not a permutation of the table ids")
	ErrEmptyMerge      = errors.New("merge needs at least one id")
	ErrStillReferenced = errors.New("reference entry still referenced")
)

// StillReferencedError rejects a delete and carries the conflicting usage count.
type StillReferencedError struct {
	Kind  domain.RefKind
	ID    string
	Count int
}

func (e *StillReferencedError) Error() string {
	return fmt.Sprintf("%s %s is used by %d record(s)", e.Kind, e.ID, e.Count)
}

// Is matches ErrStillReferenced.
func (e *StillReferencedError) Is(target error) bool {
	return target == ErrStillReferenced
}

func unknownEntry(kind domain.RefKind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrUnknownEntry, kind, id)
}
