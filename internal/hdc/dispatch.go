package hdc

// dispatch routes one located request payload by its leading MessageType
// byte (spec.md §4.3). payload is empty when Frame located a zero-length
// packet; such a request gets no reply and is reported as an error Log.
func (d *Device) dispatch(payload []byte) {
	if len(payload) == 0 {
		d.EmitLog(nil, LogLevelError, "received empty request message")
		return
	}

	mt := payload[0]
	switch {
	case mt == MsgMeta:
		d.handleMeta(payload)
	case mt == MsgEcho:
		d.handleEcho(payload)
	case mt == MsgCommand:
		d.handleCommand(payload)
	case mt < ReservedIDThreshold:
		if d.router == nil || !d.router(d, payload) {
			d.EmitLog(nil, LogLevelError, "unhandled custom message type")
		}
	default:
		d.EmitLog(nil, LogLevelError, "unknown request message type")
	}
}

// handleEcho replies to an Echo request (0xF1) with the identical payload
// it received, verbatim, for the round-trip identity test (spec.md §8).
func (d *Device) handleEcho(payload []byte) {
	d.composer.AppendBuffer(payload)
	if d.metrics != nil {
		d.metrics.PacketComposed()
	}
}

// handleCommand routes a Command request (0xF2) to its feature and
// command handler, recognizing the two mandatory command ids before
// falling back to user-defined commands (spec.md §4.3, §4.4).
func (d *Device) handleCommand(payload []byte) {
	if len(payload) < 3 {
		d.EmitLog(nil, LogLevelError, "malformed command request")
		return
	}

	featureID, cmdID := payload[1], payload[2]
	f, ok := d.Feature(featureID)
	if !ok {
		d.ReplyError(ExcUnknownFeature, payload)
		return
	}

	switch cmdID {
	case CmdGetPropertyValue:
		GetPropertyValue(d, f, payload)
		return
	case CmdSetPropertyValue:
		SetPropertyValue(d, f, payload)
		return
	}

	cmd, ok := f.Command(cmdID)
	if !ok {
		d.ReplyError(ExcUnknownCommand, payload)
		return
	}
	if d.metrics != nil {
		d.metrics.CommandDispatched(f.ID, cmdID)
	}
	cmd.Handler(d, f, payload)
}
