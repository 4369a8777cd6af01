package hdc_test

import (
	"errors"
	"testing"

	"github.com/dantte-lp/gohdc/internal/hdc"
)

func TestFeatureAddCommandRejectsReservedID(t *testing.T) {
	t.Parallel()

	f := hdc.NewFeature(0x00, "Core", "Core", "1", "")
	err := f.AddCommand(&hdc.Command{ID: 0xF0, Name: "Bogus", Handler: noopHandler})
	if !errors.Is(err, hdc.ErrReservedID) {
		t.Fatalf("err = %v, want ErrReservedID", err)
	}
}

func TestFeatureAddCommandRejectsDuplicateID(t *testing.T) {
	t.Parallel()

	f := hdc.NewFeature(0x00, "Core", "Core", "1", "")
	if err := f.AddCommand(&hdc.Command{ID: 0x01, Name: "A", Handler: noopHandler}); err != nil {
		t.Fatalf("first AddCommand: %v", err)
	}
	err := f.AddCommand(&hdc.Command{ID: 0x01, Name: "B", Handler: noopHandler})
	if !errors.Is(err, hdc.ErrDuplicateCommandID) {
		t.Fatalf("err = %v, want ErrDuplicateCommandID", err)
	}
}

func TestFeatureAddCommandRejectsTooManyArgsAndRets(t *testing.T) {
	t.Parallel()

	f := hdc.NewFeature(0x00, "Core", "Core", "1", "")
	five := []hdc.Arg{{}, {}, {}, {}, {}}

	if err := f.AddCommand(&hdc.Command{ID: 0x01, Name: "A", Handler: noopHandler, Args: five}); !errors.Is(err, hdc.ErrTooManyArgs) {
		t.Fatalf("Args: err = %v, want ErrTooManyArgs", err)
	}

	fiveRets := []hdc.Ret{{}, {}, {}, {}, {}}
	if err := f.AddCommand(&hdc.Command{ID: 0x01, Name: "A", Handler: noopHandler, Rets: fiveRets}); !errors.Is(err, hdc.ErrTooManyRets) {
		t.Fatalf("Rets: err = %v, want ErrTooManyRets", err)
	}
}

func TestFeatureAddPropertyRequiresGetterOrBacking(t *testing.T) {
	t.Parallel()

	f := hdc.NewFeature(0x00, "Core", "Core", "1", "")
	err := f.AddProperty(&hdc.Property{ID: 0x01, Name: "P", DType: hdc.UINT8, Readonly: true})
	if !errors.Is(err, hdc.ErrBadPropertyStorage) {
		t.Fatalf("err = %v, want ErrBadPropertyStorage", err)
	}
}

func TestFeatureAddPropertyWritableRequiresSetterOrBacking(t *testing.T) {
	t.Parallel()

	f := hdc.NewFeature(0x00, "Core", "Core", "1", "")
	err := f.AddProperty(&hdc.Property{
		ID: 0x01, Name: "P", DType: hdc.UINT8,
		Getter: func(*hdc.Device, *hdc.Feature, *hdc.Property) []byte { return []byte{0} },
	})
	if !errors.Is(err, hdc.ErrBadPropertyStorage) {
		t.Fatalf("err = %v, want ErrBadPropertyStorage", err)
	}
}

func TestFeatureAddPropertyRequiresDeclaredSizeForVariableSize(t *testing.T) {
	t.Parallel()

	f := hdc.NewFeature(0x00, "Core", "Core", "1", "")
	err := f.AddProperty(&hdc.Property{ID: 0x01, Name: "P", DType: hdc.BLOB, Readonly: true, Backing: []byte{}})
	if !errors.Is(err, hdc.ErrMissingDeclaredSize) {
		t.Fatalf("err = %v, want ErrMissingDeclaredSize", err)
	}
}

func TestFeatureAddEventRejectsTooManyArgs(t *testing.T) {
	t.Parallel()

	f := hdc.NewFeature(0x00, "Core", "Core", "1", "")
	five := []hdc.Arg{{}, {}, {}, {}, {}}
	err := f.AddEvent(&hdc.Event{ID: 0x01, Name: "E", Args: five})
	if !errors.Is(err, hdc.ErrTooManyArgs) {
		t.Fatalf("err = %v, want ErrTooManyArgs", err)
	}
}

func TestFeatureLookupsRoundTrip(t *testing.T) {
	t.Parallel()

	f := hdc.NewFeature(0x00, "Core", "Core", "1", "")
	cmd := &hdc.Command{ID: 0x01, Name: "A", Handler: noopHandler}
	prop := &hdc.Property{ID: 0x02, Name: "P", DType: hdc.UINT8, Backing: []byte{0}}
	evt := &hdc.Event{ID: 0x03, Name: "E"}
	state := &hdc.State{ID: 0x01, Name: "S"}

	if err := f.AddCommand(cmd); err != nil {
		t.Fatalf("AddCommand: %v", err)
	}
	if err := f.AddProperty(prop); err != nil {
		t.Fatalf("AddProperty: %v", err)
	}
	if err := f.AddEvent(evt); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	if err := f.AddState(state); err != nil {
		t.Fatalf("AddState: %v", err)
	}

	if got, ok := f.Command(0x01); !ok || got != cmd {
		t.Fatalf("Command(0x01) = %v, %v", got, ok)
	}
	if got, ok := f.Property(0x02); !ok || got != prop {
		t.Fatalf("Property(0x02) = %v, %v", got, ok)
	}
	if got, ok := f.Event(0x03); !ok || got != evt {
		t.Fatalf("Event(0x03) = %v, %v", got, ok)
	}
	if _, ok := f.Command(0xFF); ok {
		t.Fatal("Command(0xFF) found, want miss")
	}

	if len(f.Commands()) != 1 || len(f.Properties()) != 1 || len(f.Events()) != 1 || len(f.States()) != 1 {
		t.Fatal("registered-descriptor accessors did not reflect additions")
	}
}

func noopHandler(*hdc.Device, *hdc.Feature, []byte) {}
