package property

import (
	"errors"
	"testing"
)

func TestNormalizeValue_Bool(t *testing.T) {
	p := &Property{DataType: DataTypeBool}

	tests := []struct {
		name    string
		value   any
		want    any
		wantErr bool
	}{
		{name: "native true", value: true, want: true},
		{name: "string on", value: "on", want: true},
		{name: "string zero", value: "0", want: false},
		{name: "numeric one", value: float64(1), want: true},
		{name: "garbage string", value: "maybe", wantErr: true},
		{name: "nil passes through", value: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeValue(p, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("NormalizeValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeValue_Float(t *testing.T) {
	p := &Property{
		DataType: DataTypeFloat,
		Format:   []string{"7", "35"},
	}

	got, err := NormalizeValue(p, "21.5")
	if err != nil {
		t.Fatalf("NormalizeValue() error = %v", err)
	}
	if got != 21.5 {
		t.Errorf("NormalizeValue() = %v, want 21.5", got)
	}

	if _, err := NormalizeValue(p, 36.0); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("NormalizeValue() above maximum error = %v, want ErrInvalidValue", err)
	}

	if _, err := NormalizeValue(p, 5.0); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("NormalizeValue() below minimum error = %v, want ErrInvalidValue", err)
	}
}

func TestNormalizeValue_Integer(t *testing.T) {
	p := &Property{DataType: DataTypeUchar}

	got, err := NormalizeValue(p, 200)
	if err != nil {
		t.Fatalf("NormalizeValue() error = %v", err)
	}
	if got != int64(200) {
		t.Errorf("NormalizeValue() = %v (%T), want int64 200", got, got)
	}

	if _, err := NormalizeValue(p, 300); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("NormalizeValue() out of uchar range error = %v, want ErrInvalidValue", err)
	}

	if _, err := NormalizeValue(p, 1.5); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("NormalizeValue() fractional error = %v, want ErrInvalidValue", err)
	}
}

func TestNormalizeValue_Enum(t *testing.T) {
	p := &Property{
		DataType: DataTypeEnum,
		Format:   []string{"off", "heat", "cool", "auto"},
	}

	got, err := NormalizeValue(p, "Heat")
	if err != nil {
		t.Fatalf("NormalizeValue() error = %v", err)
	}
	if got != "heat" {
		t.Errorf("NormalizeValue() = %v, want heat", got)
	}

	if _, err := NormalizeValue(p, "defrost"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("NormalizeValue() unknown member error = %v, want ErrInvalidValue", err)
	}
}

func TestNormalizeValue_SwitchAndButton(t *testing.T) {
	sw := &Property{DataType: DataTypeSwitch}
	if _, err := NormalizeValue(sw, SwitchPayloadToggle); err != nil {
		t.Errorf("NormalizeValue(switch_toggle) error = %v", err)
	}
	if _, err := NormalizeValue(sw, "flip"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("NormalizeValue(flip) error = %v, want ErrInvalidValue", err)
	}

	btn := &Property{DataType: DataTypeButton}
	if _, err := NormalizeValue(btn, ButtonPayloadPressed); err != nil {
		t.Errorf("NormalizeValue(btn_pressed) error = %v", err)
	}
	if _, err := NormalizeValue(btn, "held"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("NormalizeValue(held) error = %v, want ErrInvalidValue", err)
	}
}
