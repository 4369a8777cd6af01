package hdc

import (
	"encoding/binary"
	"math"
)

// ReplyFromPieces composes a Command reply
// [0xF2, FeatureID, CommandID, ExceptionID, prefix..., suffix...]
// (spec.md §4.3). It is the canonical helper behind every other Reply*
// function.
func (d *Device) ReplyFromPieces(featureID, cmdID, excID uint8, prefix, suffix []byte) {
	d.composer.BeginMessage()
	d.composer.Append([]byte{MsgCommand, featureID, cmdID, excID})
	d.composer.Append(prefix)
	d.composer.Append(suffix)
	d.composer.EndMessage()

	if d.metrics != nil {
		d.metrics.PacketComposed()
		if excID != ExcNone {
			d.metrics.Exception(excID)
		}
	}
}

// requestHeader extracts FeatureID and CommandID from a Command request
// payload, to echo on the reply.
func requestHeader(req []byte) (featureID, cmdID uint8) {
	return req[1], req[2]
}

// ReplyVoid replies to a Command request with no return values and no
// exception.
func (d *Device) ReplyVoid(req []byte) {
	f, c := requestHeader(req)
	d.ReplyFromPieces(f, c, ExcNone, nil, nil)
}

// ReplyError replies with the given exception and no description.
func (d *Device) ReplyError(excID uint8, req []byte) {
	f, c := requestHeader(req)
	d.ReplyFromPieces(f, c, excID, nil, nil)
}

// ReplyErrorWithDescription replies with the given exception, carrying a
// human-readable UTF8 description as the reply's payload.
func (d *Device) ReplyErrorWithDescription(excID uint8, description string, req []byte) {
	f, c := requestHeader(req)
	d.ReplyFromPieces(f, c, excID, []byte(description), nil)
}

// ReplyBlobValue replies with ExcNone and a raw byte payload.
func (d *Device) ReplyBlobValue(blob []byte, req []byte) {
	f, c := requestHeader(req)
	d.ReplyFromPieces(f, c, ExcNone, blob, nil)
}

// ReplyStringValue replies with ExcNone and a UTF8 payload (no trailing
// NUL is placed on the wire, per spec.md §3).
func (d *Device) ReplyStringValue(value string, req []byte) {
	f, c := requestHeader(req)
	d.ReplyFromPieces(f, c, ExcNone, []byte(value), nil)
}

// ReplyBoolValue replies with ExcNone and a single 0x00/0x01 byte.
func (d *Device) ReplyBoolValue(value bool, req []byte) {
	f, c := requestHeader(req)
	b := byte(0)
	if value {
		b = 1
	}
	d.ReplyFromPieces(f, c, ExcNone, []byte{b}, nil)
}

// ReplyUInt8Value replies with ExcNone and one byte.
func (d *Device) ReplyUInt8Value(value uint8, req []byte) {
	f, c := requestHeader(req)
	d.ReplyFromPieces(f, c, ExcNone, []byte{value}, nil)
}

// ReplyUInt16Value replies with ExcNone and a little-endian uint16.
func (d *Device) ReplyUInt16Value(value uint16, req []byte) {
	f, c := requestHeader(req)
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, value)
	d.ReplyFromPieces(f, c, ExcNone, buf, nil)
}

// ReplyUInt32Value replies with ExcNone and a little-endian uint32.
func (d *Device) ReplyUInt32Value(value uint32, req []byte) {
	f, c := requestHeader(req)
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, value)
	d.ReplyFromPieces(f, c, ExcNone, buf, nil)
}

// ReplyInt8Value replies with ExcNone and one byte.
func (d *Device) ReplyInt8Value(value int8, req []byte) {
	f, c := requestHeader(req)
	d.ReplyFromPieces(f, c, ExcNone, []byte{byte(value)}, nil)
}

// ReplyInt16Value replies with ExcNone and a little-endian int16.
func (d *Device) ReplyInt16Value(value int16, req []byte) {
	f, c := requestHeader(req)
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(value))
	d.ReplyFromPieces(f, c, ExcNone, buf, nil)
}

// ReplyInt32Value replies with ExcNone and a little-endian int32.
func (d *Device) ReplyInt32Value(value int32, req []byte) {
	f, c := requestHeader(req)
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(value))
	d.ReplyFromPieces(f, c, ExcNone, buf, nil)
}

// ReplyFloatValue replies with ExcNone and an IEEE-754 binary32 LE value.
func (d *Device) ReplyFloatValue(value float32, req []byte) {
	f, c := requestHeader(req)
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, math.Float32bits(value))
	d.ReplyFromPieces(f, c, ExcNone, buf, nil)
}

// ReplyDoubleValue replies with ExcNone and an IEEE-754 binary64 LE value.
func (d *Device) ReplyDoubleValue(value float64, req []byte) {
	f, c := requestHeader(req)
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(value))
	d.ReplyFromPieces(f, c, ExcNone, buf, nil)
}

// ReplyDTypeValue replies with ExcNone and a single DType code byte.
func (d *Device) ReplyDTypeValue(value DType, req []byte) {
	f, c := requestHeader(req)
	d.ReplyFromPieces(f, c, ExcNone, []byte{uint8(value)}, nil)
}
