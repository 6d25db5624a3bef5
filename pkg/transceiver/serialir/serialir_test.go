package serialir

import (
	"reflect"
	"testing"

	"github.com/hausnet/irbridge/pkg/ircode"
	"github.com/hausnet/irbridge/pkg/sensor"
)

func TestParseRX(t *testing.T) {
	tests := []struct {
		name    string
		fields  []string
		want    *ircode.DecodeResult
		wantErr bool
	}{
		{
			name:   "NEC Decode",
			fields: []string{"3", "20DF10EF", "32", "4", "8", "0", "0"},
			want: &ircode.DecodeResult{
				Type:    3,
				Value:   0x20DF10EF,
				Bits:    32,
				Address: 0x4,
				Command: 0x8,
			},
		},
		{
			name:   "Repeat Flag",
			fields: []string{"3", "20DF10EF", "32", "0", "0", "1", "0"},
			want: &ircode.DecodeResult{
				Type:   3,
				Value:  0x20DF10EF,
				Bits:   32,
				Repeat: true,
			},
		},
		{
			name:   "Overflow Flag",
			fields: []string{"-1", "0", "0", "0", "0", "0", "1"},
			want: &ircode.DecodeResult{
				Type:     -1,
				Overflow: true,
			},
		},
		{
			name:   "Unknown With Ticks",
			fields: []string{"-1", "0", "0", "0", "0", "0", "0", "3895,9,45,9"},
			want: &ircode.DecodeResult{
				Type:   -1,
				RawBuf: []uint16{3895, 9, 45, 9},
			},
		},
		{
			name:    "Too Few Fields",
			fields:  []string{"3", "20DF10EF", "32"},
			wantErr: true,
		},
		{
			name:    "Bad Hex Value",
			fields:  []string{"3", "XYZ", "32", "0", "0", "0", "0"},
			wantErr: true,
		},
		{
			name:    "Bad Tick",
			fields:  []string{"-1", "0", "0", "0", "0", "0", "0", "12,notanumber"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRX(tt.fields)
			if tt.wantErr {
				if err == nil {
					t.Fatal("parseRX should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRX failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseRX = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseTH(t *testing.T) {
	tests := []struct {
		name    string
		fields  []string
		want    sensor.Reading
		wantErr bool
	}{
		{
			name:   "Valid Reading",
			fields: []string{"21.5", "48.0"},
			want:   sensor.Reading{TemperatureC: 21.5, Humidity: 48.0},
		},
		{
			name:   "Negative Temperature",
			fields: []string{"-3.2", "80.5"},
			want:   sensor.Reading{TemperatureC: -3.2, Humidity: 80.5},
		},
		{
			name:    "Missing Humidity",
			fields:  []string{"21.5"},
			wantErr: true,
		},
		{
			name:    "Garbage",
			fields:  []string{"abc", "48.0"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTH(tt.fields)
			if tt.wantErr {
				if err == nil {
					t.Fatal("parseTH should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTH failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseTH = %+v, want %+v", got, tt.want)
			}
		})
	}
}
