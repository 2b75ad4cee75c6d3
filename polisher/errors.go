package polisher

import "errors"

var (
	// ErrNoAccelerators means the backend reported zero devices at
	// construction time.
	ErrNoAccelerators = errors.New("no accelerated devices available")

	// ErrResultCountMismatch means an executor returned a result sequence
	// whose length disagrees with the range it was filled with. This is an
	// internal contract violation between filler and executor; the run is
	// not recoverable past it.
	ErrResultCountMismatch = errors.New("executor result count does not match assigned range")

	// ErrNoEngineBound means a fallback worker found no alignment engine in
	// its slot, which indicates an internal dispatch bug.
	ErrNoEngineBound = errors.New("no alignment engine bound to fallback worker")
)
