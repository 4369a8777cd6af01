package hdc

import (
	"encoding/binary"
	"encoding/json"
)

// handleMeta replies to a Meta request (0xF0): payload is
// [0xF0, MetaID, trailing...]. Unexpected trailing bytes are echoed back
// after the reply value rather than rejected, since they carry no
// semantic weight for any defined MetaID (spec.md §4.6).
func (d *Device) handleMeta(payload []byte) {
	if len(payload) < 2 {
		d.EmitLog(nil, LogLevelError, "malformed meta request")
		return
	}
	metaID := payload[1]
	trailing := payload[2:]

	switch metaID {
	case MetaHdcVersion:
		d.composer.BeginMessage()
		d.composer.Append([]byte{MsgMeta, MetaHdcVersion})
		d.composer.Append([]byte(ProtocolVersion))
		d.composer.Append(trailing)
		d.composer.EndMessage()

	case MetaMaxReq:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(d.cfg.MaxReqMessageSize))
		d.composer.BeginMessage()
		d.composer.Append([]byte{MsgMeta, MetaMaxReq})
		d.composer.Append(buf)
		d.composer.Append(trailing)
		d.composer.EndMessage()

	case MetaIdlJSON:
		d.composer.BeginMessage()
		d.composer.Append([]byte{MsgMeta, MetaIdlJSON})
		d.streamIDL()
		d.composer.Append(trailing)
		d.composer.EndMessage()

	default:
		d.EmitLog(nil, LogLevelError, "unknown meta request id")
		return
	}

	if d.metrics != nil {
		d.metrics.PacketComposed()
	}
}

// streamIDL writes the full introspection document directly into the
// composer, one JSON token at a time, so a device with many features never
// needs to hold the whole document in memory at once (spec.md §4.6).
func (d *Device) streamIDL() {
	c := d.composer
	c.Append([]byte(`{"version":`))
	c.Append(jsonStr(ProtocolVersion))
	c.Append([]byte(`,"max_req":`))
	c.Append([]byte(jsonInt(d.cfg.MaxReqMessageSize)))
	c.Append([]byte(`,"features":[`))

	comma := false
	for _, f := range d.features {
		if comma {
			c.Append([]byte(","))
		}
		comma = true
		streamFeatureIDL(c, f)
	}
	c.Append([]byte("]}"))
}

func streamFeatureIDL(c *Composer, f *Feature) {
	c.Append([]byte(`{"id":`))
	c.Append([]byte(jsonInt(int(f.ID))))
	c.Append([]byte(`,"name":`))
	c.Append(jsonStr(f.Name))
	c.Append([]byte(`,"cls":`))
	c.Append(jsonStr(f.ClassName))
	c.Append([]byte(`,"version":`))
	c.Append(jsonStr(f.ClassVersion))
	c.Append([]byte(`,"doc":`))
	c.Append(jsonStr(f.Description))

	c.Append([]byte(`,"states":[`))
	comma := false
	for _, s := range f.States() {
		if comma {
			c.Append([]byte(","))
		}
		comma = true
		c.Append([]byte(`{"id":`))
		c.Append([]byte(jsonInt(int(s.ID))))
		c.Append([]byte(`,"name":`))
		c.Append(jsonStr(s.Name))
		c.Append([]byte(`,"doc":`))
		c.Append(jsonStr(s.Doc))
		c.Append([]byte("}"))
	}
	c.Append([]byte("]"))

	c.Append([]byte(`,"commands":[`))
	comma = false
	streamMandatoryCommandsIDL(c, &comma)
	for _, cmd := range f.Commands() {
		if comma {
			c.Append([]byte(","))
		}
		comma = true
		streamCommandIDL(c, cmd)
	}
	c.Append([]byte("]"))

	c.Append([]byte(`,"properties":[`))
	comma = false
	streamMandatoryPropertiesIDL(c, &comma)
	for _, p := range f.Properties() {
		if comma {
			c.Append([]byte(","))
		}
		comma = true
		streamPropertyIDL(c, p)
	}
	c.Append([]byte("]"))

	c.Append([]byte(`,"events":[`))
	comma = false
	streamMandatoryEventsIDL(c, &comma)
	for _, e := range f.Events() {
		if comma {
			c.Append([]byte(","))
		}
		comma = true
		streamEventIDL(c, e)
	}
	c.Append([]byte("]}"))
}

func streamMandatoryCommandsIDL(c *Composer, comma *bool) {
	for _, m := range []struct {
		id, retDType uint8
		name         string
	}{
		{CmdGetPropertyValue, 0, "GetPropertyValue"},
		{CmdSetPropertyValue, 0, "SetPropertyValue"},
	} {
		if *comma {
			c.Append([]byte(","))
		}
		*comma = true
		c.Append([]byte(`{"id":`))
		c.Append([]byte(jsonInt(int(m.id))))
		c.Append([]byte(`,"name":`))
		c.Append(jsonStr(m.name))
		c.Append([]byte(`,"args":[{"dtype":"UINT8","name":"PropertyID"}`))
		if m.id == CmdSetPropertyValue {
			c.Append([]byte(`,{"dtype":"BLOB","name":"NewValue"}`))
		}
		c.Append([]byte(`],"returns":[{"dtype":"BLOB","name":"Value"}]}`))
	}
}

func streamMandatoryPropertiesIDL(c *Composer, comma *bool) {
	for _, m := range []struct {
		id       uint8
		name     string
		readonly bool
	}{
		{PropLogEventThreshold, "LogEventThreshold", false},
		{PropFeatureState, "FeatureState", true},
	} {
		if *comma {
			c.Append([]byte(","))
		}
		*comma = true
		c.Append([]byte(`{"id":`))
		c.Append([]byte(jsonInt(int(m.id))))
		c.Append([]byte(`,"name":`))
		c.Append(jsonStr(m.name))
		c.Append([]byte(`,"dtype":"UINT8","ro":`))
		c.Append([]byte(jsonBool(m.readonly)))
		c.Append([]byte("}"))
	}
}

func streamMandatoryEventsIDL(c *Composer, comma *bool) {
	for _, m := range []struct {
		id   uint8
		name string
	}{
		{EvtLog, "Log"},
		{EvtFeatureStateTransition, "FeatureStateTransition"},
	} {
		if *comma {
			c.Append([]byte(","))
		}
		*comma = true
		c.Append([]byte(`{"id":`))
		c.Append([]byte(jsonInt(int(m.id))))
		c.Append([]byte(`,"name":`))
		c.Append(jsonStr(m.name))
		c.Append([]byte(`}`))
	}
}

func streamCommandIDL(c *Composer, cmd *Command) {
	c.Append([]byte(`{"id":`))
	c.Append([]byte(jsonInt(int(cmd.ID))))
	c.Append([]byte(`,"name":`))
	c.Append(jsonStr(cmd.Name))
	c.Append([]byte(`,"doc":`))
	c.Append(jsonStr(cmd.Doc))

	c.Append([]byte(`,"args":[`))
	for i, a := range cmd.Args {
		if i > 0 {
			c.Append([]byte(","))
		}
		streamArgIDL(c, a)
	}
	c.Append([]byte(`],"returns":[`))
	for i, r := range cmd.Rets {
		if i > 0 {
			c.Append([]byte(","))
		}
		c.Append([]byte(`{"dtype":`))
		c.Append(jsonStr(r.DType.Name()))
		c.Append([]byte(`,"name":`))
		c.Append(jsonStr(r.Name))
		c.Append([]byte("}"))
	}
	c.Append([]byte(`],"raises":[`))
	for i, exc := range cmd.Raises {
		if i > 0 {
			c.Append([]byte(","))
		}
		c.Append([]byte(`{"id":`))
		c.Append([]byte(jsonInt(int(exc.ID))))
		c.Append([]byte(`,"name":`))
		c.Append(jsonStr(exc.Name))
		c.Append([]byte("}"))
	}
	c.Append([]byte("]}"))
}

func streamArgIDL(c *Composer, a Arg) {
	c.Append([]byte(`{"dtype":`))
	c.Append(jsonStr(a.DType.Name()))
	c.Append([]byte(`,"name":`))
	c.Append(jsonStr(a.Name))
	c.Append([]byte("}"))
}

func streamPropertyIDL(c *Composer, p *Property) {
	c.Append([]byte(`{"id":`))
	c.Append([]byte(jsonInt(int(p.ID))))
	c.Append([]byte(`,"name":`))
	c.Append(jsonStr(p.Name))
	c.Append([]byte(`,"dtype":`))
	c.Append(jsonStr(p.DType.Name()))
	if p.DType.IsVariableSize() {
		c.Append([]byte(`,"size":`))
		c.Append([]byte(jsonInt(int(p.DeclaredSize))))
	}
	c.Append([]byte(`,"ro":`))
	c.Append([]byte(jsonBool(p.Readonly)))
	c.Append([]byte(`,"doc":`))
	c.Append(jsonStr(p.Doc))
	c.Append([]byte("}"))
}

func streamEventIDL(c *Composer, e *Event) {
	c.Append([]byte(`{"id":`))
	c.Append([]byte(jsonInt(int(e.ID))))
	c.Append([]byte(`,"name":`))
	c.Append(jsonStr(e.Name))
	c.Append([]byte(`,"doc":`))
	c.Append(jsonStr(e.Doc))
	c.Append([]byte(`,"args":[`))
	for i, a := range e.Args {
		if i > 0 {
			c.Append([]byte(","))
		}
		streamArgIDL(c, a)
	}
	c.Append([]byte("]}"))
}

func jsonStr(s string) []byte {
	b, _ := json.Marshal(s)
	return b
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func jsonBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
