package hdc_test

import (
	"testing"

	"github.com/dantte-lp/gohdc/internal/hdc"
)

func TestDTypeFixedSize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		dtype hdc.DType
		size  int
	}{
		{hdc.UINT8, 1},
		{hdc.UINT16, 2},
		{hdc.UINT32, 4},
		{hdc.INT8, 1},
		{hdc.INT16, 2},
		{hdc.INT32, 4},
		{hdc.FLOAT, 4},
		{hdc.DOUBLE, 8},
		{hdc.BOOL, 1}, // special-cased: low nibble 0x1 does not match its size by rule
		{hdc.DTYPE, 1},
	}
	for _, tc := range cases {
		size, fixed := tc.dtype.FixedSize()
		if !fixed {
			t.Fatalf("%s: FixedSize reported variable-size", tc.dtype)
		}
		if size != tc.size {
			t.Fatalf("%s: size = %d, want %d", tc.dtype, size, tc.size)
		}
		if tc.dtype.IsVariableSize() {
			t.Fatalf("%s: IsVariableSize = true, want false", tc.dtype)
		}
	}
}

func TestDTypeVariableSize(t *testing.T) {
	t.Parallel()

	for _, dtype := range []hdc.DType{hdc.UTF8, hdc.BLOB} {
		if !dtype.IsVariableSize() {
			t.Fatalf("%s: IsVariableSize = false, want true", dtype)
		}
		if _, fixed := dtype.FixedSize(); fixed {
			t.Fatalf("%s: FixedSize reported a fixed size", dtype)
		}
	}
}

func TestDTypeName(t *testing.T) {
	t.Parallel()

	cases := map[hdc.DType]string{
		hdc.UINT8:  "UINT8",
		hdc.UINT16: "UINT16",
		hdc.UINT32: "UINT32",
		hdc.INT8:   "INT8",
		hdc.INT16:  "INT16",
		hdc.INT32:  "INT32",
		hdc.FLOAT:  "FLOAT",
		hdc.DOUBLE: "DOUBLE",
		hdc.UTF8:   "UTF8",
		hdc.BOOL:   "BOOL",
		hdc.BLOB:   "BLOB",
		hdc.DTYPE:  "DTYPE",
	}
	for dtype, want := range cases {
		if got := dtype.Name(); got != want {
			t.Fatalf("%#x: Name() = %q, want %q", uint8(dtype), got, want)
		}
		if got := dtype.String(); got != want {
			t.Fatalf("%#x: String() = %q, want %q", uint8(dtype), got, want)
		}
	}
}

func TestDTypeNameUnknown(t *testing.T) {
	t.Parallel()

	unknown := hdc.DType(0x77)
	if got := unknown.Name(); got == "" {
		t.Fatal("Name() returned empty string for an unknown DType")
	}
}
