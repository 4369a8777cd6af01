package hdc

import "fmt"

// DType is the 8-bit HDC data-type tag. The upper nibble encodes the kind,
// the lower nibble the size in bytes, with 0xF denoting a variable-size type.
type DType uint8

// Data type codes (spec.md §3).
const (
	UINT8  DType = 0x01
	UINT16 DType = 0x02
	UINT32 DType = 0x04
	INT8   DType = 0x11
	INT16  DType = 0x12
	INT32  DType = 0x14
	FLOAT  DType = 0x24
	DOUBLE DType = 0x28
	UTF8   DType = 0xAF
	BOOL   DType = 0xB1
	BLOB   DType = 0xBF
	DTYPE  DType = 0xD1
)

// varSizeNibble marks a DType as variable-size (UTF8, BLOB).
const varSizeNibble = 0x0F

// IsVariableSize reports whether the type's wire size depends on a
// declared_size rather than being fixed by the type code itself.
func (d DType) IsVariableSize() bool {
	return d.lowNibble() == varSizeNibble
}

// FixedSize returns the wire size in bytes for a fixed-size DType. BOOL is
// the one type whose low nibble (0x1) doesn't match its actual size (1
// byte is correct, but the nibble-means-size rule is otherwise followed by
// every other fixed type) -- it is special-cased here and in SetPropertyValue
// validation to avoid the low-nibble-1 of BOOL being confused with UINT8's
// encoding, since both occupy 1 byte. The second return value is false for
// variable-size types.
func (d DType) FixedSize() (int, bool) {
	if d.IsVariableSize() {
		return 0, false
	}
	if d == BOOL {
		return 1, true
	}
	return int(d.lowNibble()), true
}

func (d DType) lowNibble() uint8 {
	return uint8(d) & 0x0F
}

// Name returns the mnemonic used on the wire in the IDL JSON document.
func (d DType) Name() string {
	switch d {
	case UINT8:
		return "UINT8"
	case UINT16:
		return "UINT16"
	case UINT32:
		return "UINT32"
	case INT8:
		return "INT8"
	case INT16:
		return "INT16"
	case INT32:
		return "INT32"
	case FLOAT:
		return "FLOAT"
	case DOUBLE:
		return "DOUBLE"
	case UTF8:
		return "UTF8"
	case BOOL:
		return "BOOL"
	case BLOB:
		return "BLOB"
	case DTYPE:
		return "DTYPE"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", uint8(d))
	}
}

func (d DType) String() string {
	return d.Name()
}
