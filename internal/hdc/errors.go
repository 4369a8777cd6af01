package hdc

import "errors"

// Sentinel errors returned by descriptor registration and lookup. These
// are Go-level programmer errors (bad descriptor wiring), distinct from
// the wire-level Exception codes a Command reply carries.
var (
	// ErrDuplicateFeatureID indicates two features were registered with
	// the same id. Feature.AddState also returns it when a state id is
	// registered twice on one feature.
	ErrDuplicateFeatureID = errors.New("hdc: duplicate feature id")

	// ErrMissingCoreFeature indicates no feature with id 0x00 was
	// registered (spec.md §3: "exactly one Feature has id=0x00").
	ErrMissingCoreFeature = errors.New("hdc: no feature with id 0x00 (Core) registered")

	// ErrDuplicateCommandID indicates two commands on the same feature
	// share an id.
	ErrDuplicateCommandID = errors.New("hdc: duplicate command id within feature")

	// ErrDuplicatePropertyID indicates two properties on the same feature
	// share an id.
	ErrDuplicatePropertyID = errors.New("hdc: duplicate property id within feature")

	// ErrDuplicateEventID indicates two events on the same feature share
	// an id.
	ErrDuplicateEventID = errors.New("hdc: duplicate event id within feature")

	// ErrReservedID indicates a user-defined Command/Property/Event was
	// registered with an id >= 0xF0, which is reserved for the protocol.
	ErrReservedID = errors.New("hdc: ids >= 0xF0 are reserved for the protocol")

	// ErrTooManyArgs indicates a Command or Event descriptor declared more
	// than 4 arguments.
	ErrTooManyArgs = errors.New("hdc: at most 4 arguments are permitted")

	// ErrTooManyRets indicates a Command descriptor declared more than 4
	// return values.
	ErrTooManyRets = errors.New("hdc: at most 4 return values are permitted")

	// ErrBadPropertyStorage indicates a Property descriptor has neither a
	// getter nor backing storage (or neither a setter nor backing storage
	// for a writable property).
	ErrBadPropertyStorage = errors.New("hdc: property needs a getter/setter or backing storage")

	// ErrMissingDeclaredSize indicates a variable-size Property (BLOB,
	// UTF8) was registered without a DeclaredSize.
	ErrMissingDeclaredSize = errors.New("hdc: variable-size property requires a declared size")
)

// ReservedIDThreshold is the first id reserved for protocol use
// (spec.md §2: "IDs >= 0xF0 are reserved for the protocol").
const ReservedIDThreshold = 0xF0
