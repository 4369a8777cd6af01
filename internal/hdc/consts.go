package hdc

// MessageType tags the first byte of every message payload (spec.md §3).
const (
	MsgMeta    uint8 = 0xF0
	MsgEcho    uint8 = 0xF1
	MsgCommand uint8 = 0xF2
	MsgEvent   uint8 = 0xF3
)

// MetaID tags the second byte of a Meta message (spec.md §3).
const (
	MetaHdcVersion uint8 = 0xF0
	MetaMaxReq     uint8 = 0xF1
	MetaIdlJSON    uint8 = 0xF2
)

// Mandatory command ids, present on every feature (spec.md §6.2).
const (
	CmdGetPropertyValue uint8 = 0xF0
	CmdSetPropertyValue uint8 = 0xF1
)

// Mandatory property ids, present on every feature (spec.md §4.4).
const (
	PropLogEventThreshold uint8 = 0xF0
	PropFeatureState      uint8 = 0xF1
)

// FeatureIDCore is the id reserved for the mandatory Core feature
// (spec.md §3).
const FeatureIDCore uint8 = 0x00
