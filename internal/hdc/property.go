package hdc

// Property-value sizing and the mandatory GetPropertyValue/SetPropertyValue
// commands every feature exposes (spec.md §4.4).

// getPropertyBytes serializes a property's current value onto the wire,
// dispatching to the two mandatory builtin properties (LogEventThreshold,
// FeatureState) before falling back to the feature's user-defined
// properties.
func getPropertyBytes(dev *Device, f *Feature, propID uint8) ([]byte, uint8) {
	switch propID {
	case PropLogEventThreshold:
		return []byte{f.LogThreshold()}, ExcNone
	case PropFeatureState:
		return []byte{f.State()}, ExcNone
	}

	p, ok := f.Property(propID)
	if !ok {
		return nil, ExcUnknownProperty
	}
	if p.Getter != nil {
		return p.Getter(dev, f, p), ExcNone
	}
	return append([]byte(nil), p.Backing...), ExcNone
}

// GetPropertyValue is the mandatory 0xF0 command (spec.md §4.4): request
// payload is [0xF2, FeatureID, 0xF0, PropertyID], reply payload is the
// property's current value with no additional framing.
func GetPropertyValue(dev *Device, f *Feature, req []byte) {
	if len(req) != 4 {
		dev.ReplyError(ExcInvalidArgs, req)
		return
	}
	propID := req[3]

	value, exc := getPropertyBytes(dev, f, propID)
	if exc != ExcNone {
		dev.ReplyError(exc, req)
		return
	}
	if dev.metrics != nil {
		dev.metrics.PropertyGet(f.ID, propID)
	}
	dev.ReplyFromPieces(f.ID, CmdGetPropertyValue, ExcNone, value, nil)
}

// validateValueSize checks a set-request's value bytes against a
// property's declared wire size, per spec.md §4.4.
func validateValueSize(dtype DType, declaredSize uint16, value []byte) bool {
	if size, fixed := dtype.FixedSize(); fixed {
		return len(value) == size
	}
	return len(value) < int(declaredSize)
}

// setLogEventThreshold clamps the requested value to the closest
// multiple of 10 in [10,50], per spec.md §4.4, and returns the
// effective value the host should observe echoed back.
func setLogEventThreshold(f *Feature, requested uint8) uint8 {
	level := requested
	switch {
	case level < uint8(LogLevelDebug):
		level = uint8(LogLevelDebug)
	case level > uint8(LogLevelCritical):
		level = uint8(LogLevelCritical)
	default:
		level = (level + 5) / 10 * 10
	}
	f.mu.Lock()
	f.logThreshold = level
	f.mu.Unlock()
	return level
}

// SetPropertyValue is the mandatory 0xF1 command (spec.md §4.4): request
// payload is [0xF2, FeatureID, 0xF1, PropertyID, value...], reply payload
// is the actually-stored value (which may differ from the requested one,
// e.g. LogEventThreshold rounding).
func SetPropertyValue(dev *Device, f *Feature, req []byte) {
	if len(req) < 4 {
		dev.ReplyError(ExcInvalidArgs, req)
		return
	}
	propID := req[3]
	value := req[4:]

	switch propID {
	case PropLogEventThreshold:
		if len(value) != 1 {
			dev.ReplyError(ExcInvalidArgs, req)
			return
		}
		stored := setLogEventThreshold(f, value[0])
		if dev.metrics != nil {
			dev.metrics.PropertySet(f.ID, propID)
		}
		dev.ReplyFromPieces(f.ID, CmdSetPropertyValue, ExcNone, []byte{stored}, nil)
		return
	case PropFeatureState:
		dev.ReplyError(ExcReadOnlyProperty, req)
		return
	}

	p, ok := f.Property(propID)
	if !ok {
		dev.ReplyError(ExcUnknownProperty, req)
		return
	}
	if p.Readonly {
		dev.ReplyError(ExcReadOnlyProperty, req)
		return
	}
	if !validateValueSize(p.DType, p.DeclaredSize, value) {
		dev.ReplyError(ExcInvalidArgs, req)
		return
	}

	var stored []byte
	if p.Setter != nil {
		stored = p.Setter(dev, f, p, value)
	} else {
		p.Backing = append(p.Backing[:0], value...)
		stored = p.Backing
	}

	if dev.metrics != nil {
		dev.metrics.PropertySet(f.ID, propID)
	}
	dev.ReplyFromPieces(f.ID, CmdSetPropertyValue, ExcNone, stored, nil)
}
