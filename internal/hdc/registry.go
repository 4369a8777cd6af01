package hdc

import "sync"

// Predefined exception ids (spec.md §3). ExcNone (0x00) means "no error"
// and is never looked up by id -- it's simply the zero value written into
// a reply's ExceptionID byte.
const (
	ExcNone             uint8 = 0x00
	ExcCommandFailed    uint8 = 0xF0
	ExcUnknownFeature   uint8 = 0xF1
	ExcUnknownCommand   uint8 = 0xF2
	ExcInvalidArgs      uint8 = 0xF3
	ExcNotNow           uint8 = 0xF4
	ExcUnknownProperty  uint8 = 0xF5
	ExcReadOnlyProperty uint8 = 0xF6
)

// Exception describes a named Command-reply error code.
type Exception struct {
	ID   uint8
	Name string
	Doc  string
}

var (
	excCommandFailedDesc    = Exception{ExcCommandFailed, "CommandFailed", "The command failed for an unspecified reason."}
	excUnknownFeatureDesc   = Exception{ExcUnknownFeature, "UnknownFeature", "No feature exists with the requested id."}
	excUnknownCommandDesc   = Exception{ExcUnknownCommand, "UnknownCommand", "The feature has no command with the requested id."}
	excInvalidArgsDesc      = Exception{ExcInvalidArgs, "InvalidArgs", "The request's arguments were malformed or out of range."}
	excNotNowDesc           = Exception{ExcNotNow, "NotNow", "The command can't be executed in the feature's current state."}
	excUnknownPropertyDesc  = Exception{ExcUnknownProperty, "UnknownProperty", "The feature has no property with the requested id."}
	excReadOnlyPropertyDesc = Exception{ExcReadOnlyProperty, "ReadOnlyProperty", "The property can't be written."}
)

// standardExceptions lists the predefined exceptions every feature's
// mandatory commands may raise, in declaration order. The IDL emitter does
// not reference it: the mandatory commands are described without "raises".
var standardExceptions = []*Exception{
	&excCommandFailedDesc, &excUnknownFeatureDesc, &excUnknownCommandDesc,
	&excInvalidArgsDesc, &excNotNowDesc, &excUnknownPropertyDesc, &excReadOnlyPropertyDesc,
}

// Arg describes one Command argument or Event argument.
type Arg struct {
	DType DType
	Name  string
	Doc   string
}

// Ret describes one Command return value.
type Ret struct {
	DType DType
	Name  string
	Doc   string
}

// CommandHandler executes a Command request. It must produce exactly one
// Command-type reply via Device's reply helpers before returning, or
// arrange for deferred work that eventually does (spec.md §4.3).
// requestPayload is the full request message payload, including the
// MessageType/FeatureID/CommandID header bytes.
type CommandHandler func(dev *Device, f *Feature, requestPayload []byte)

// Command describes one RPC exposed by a Feature.
type Command struct {
	ID      uint8
	Name    string
	Handler CommandHandler
	Args    []Arg
	Rets    []Ret
	Raises  []*Exception
	Doc     string
}

// PropertyGetter serializes a property's current value onto the wire
// (little-endian for numeric types, raw bytes for UTF8/BLOB).
type PropertyGetter func(dev *Device, f *Feature, p *Property) []byte

// PropertySetter stores a new property value and returns the
// actually-stored value, serialized the same way a getter would --
// callers may clamp or round, so the returned bytes may differ from the
// requested ones (spec.md §4.4).
type PropertySetter func(dev *Device, f *Feature, p *Property, value []byte) []byte

// Property describes one typed, addressable datum on a Feature.
type Property struct {
	ID           uint8
	Name         string
	DType        DType
	Readonly     bool
	Getter       PropertyGetter
	Setter       PropertySetter
	Backing      []byte // usable when Getter/Setter is nil
	DeclaredSize uint16 // required for BLOB/UTF8, ignored otherwise
	Doc          string
}

// Event describes one asynchronous Feature->host message.
type Event struct {
	ID   uint8
	Name string
	Args []Arg
	Doc  string
}

// State describes one named value of a Feature's state machine.
type State struct {
	ID   uint8
	Name string
	Doc  string
}

// FeatureStateError is the sentinel FeatureState value meaning the
// feature has encountered an error (spec.md §3).
const FeatureStateError uint8 = 0xFF

// Feature is a named, addressable hierarchy of Commands, Properties,
// Events and a state machine (spec.md §3). Features are registered once
// at Device.Init and are immutable thereafter except for State and
// LogThreshold, both mutated only from the cooperative Work()/Flush()
// context (spec.md §5).
type Feature struct {
	ID                             uint8
	Name, ClassName, ClassVersion  string
	Description                    string
	UserHandle                     any

	states     []*State
	commands   []*Command
	events     []*Event
	properties []*Property

	stateByID map[uint8]*State
	cmdByID   map[uint8]*Command
	propByID  map[uint8]*Property
	evtByID   map[uint8]*Event

	mu           sync.Mutex
	logThreshold uint8
	state        uint8
}

// NewFeature allocates an empty Feature. Use the Add* methods to register
// its Commands/Properties/Events/States before passing it to Device.Init.
func NewFeature(id uint8, name, className, classVersion, description string) *Feature {
	return &Feature{
		ID:           id,
		Name:         name,
		ClassName:    className,
		ClassVersion: classVersion,
		Description:  description,
		stateByID:    make(map[uint8]*State),
		cmdByID:      make(map[uint8]*Command),
		propByID:     make(map[uint8]*Property),
		evtByID:      make(map[uint8]*Event),
		logThreshold: uint8(LogLevelInfo),
	}
}

// AddState registers a State descriptor.
func (f *Feature) AddState(s *State) error {
	if _, dup := f.stateByID[s.ID]; dup {
		return ErrDuplicateFeatureID
	}
	f.states = append(f.states, s)
	f.stateByID[s.ID] = s
	return nil
}

// AddCommand registers a Command descriptor.
func (f *Feature) AddCommand(c *Command) error {
	if c.ID >= ReservedIDThreshold {
		return ErrReservedID
	}
	if _, dup := f.cmdByID[c.ID]; dup {
		return ErrDuplicateCommandID
	}
	if len(c.Args) > 4 {
		return ErrTooManyArgs
	}
	if len(c.Rets) > 4 {
		return ErrTooManyRets
	}
	f.commands = append(f.commands, c)
	f.cmdByID[c.ID] = c
	return nil
}

// AddProperty registers a Property descriptor.
func (f *Feature) AddProperty(p *Property) error {
	if p.ID >= ReservedIDThreshold {
		return ErrReservedID
	}
	if _, dup := f.propByID[p.ID]; dup {
		return ErrDuplicatePropertyID
	}
	if p.Getter == nil && p.Backing == nil {
		return ErrBadPropertyStorage
	}
	if !p.Readonly && p.Setter == nil && p.Backing == nil {
		return ErrBadPropertyStorage
	}
	if p.DType.IsVariableSize() && p.DeclaredSize == 0 {
		return ErrMissingDeclaredSize
	}
	f.properties = append(f.properties, p)
	f.propByID[p.ID] = p
	return nil
}

// AddEvent registers an Event descriptor.
func (f *Feature) AddEvent(e *Event) error {
	if e.ID >= ReservedIDThreshold {
		return ErrReservedID
	}
	if _, dup := f.evtByID[e.ID]; dup {
		return ErrDuplicateEventID
	}
	if len(e.Args) > 4 {
		return ErrTooManyArgs
	}
	f.events = append(f.events, e)
	f.evtByID[e.ID] = e
	return nil
}

// Command looks up a user-defined command by id (feature-local only; the
// mandatory GetPropertyValue/SetPropertyValue commands are handled
// separately by the dispatch engine).
func (f *Feature) Command(id uint8) (*Command, bool) {
	c, ok := f.cmdByID[id]
	return c, ok
}

// Property looks up a property by id.
func (f *Feature) Property(id uint8) (*Property, bool) {
	p, ok := f.propByID[id]
	return p, ok
}

// Event looks up an event by id.
func (f *Feature) Event(id uint8) (*Event, bool) {
	e, ok := f.evtByID[id]
	return e, ok
}

// States returns the feature's declared states, or nil if none were
// declared (in which case FeatureStateTransition accepts any value).
func (f *Feature) States() []*State {
	return f.states
}

// Commands, Properties and Events expose the registered descriptors in
// registration order, for the IDL emitter.
func (f *Feature) Commands() []*Command     { return f.commands }
func (f *Feature) Properties() []*Property  { return f.properties }
func (f *Feature) Events() []*Event         { return f.events }

// State returns the feature's current FeatureState value.
func (f *Feature) State() uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// LogThreshold returns the feature's current LogEventThreshold value.
func (f *Feature) LogThreshold() uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logThreshold
}
