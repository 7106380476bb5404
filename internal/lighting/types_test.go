package lighting

import (
	"testing"

	"github.com/lumina-home/lumina-core/internal/transport"
)

func TestNormalize(t *testing.T) {
	raw := transport.Light{
		DeviceID:          "dev-1",
		Model:             "bulb-a",
		Name:              "Kitchen",
		Label:             "Kitchen (LAN)",
		Controllable:      true,
		Retrievable:       true,
		SupportedCommands: []string{"Power", "Brightness", "ColorTemperature"},
	}

	light := Normalize(raw)

	if light.Value != "dev-1|bulb-a" {
		t.Errorf("Value = %q, want dev-1|bulb-a", light.Value)
	}
	if light.Key() != raw.Key() {
		t.Errorf("Key() = %v, want %v", light.Key(), raw.Key())
	}

	want := Capabilities{Power: true, Brightness: true, ColorTemperature: true}
	if light.Capabilities != want {
		t.Errorf("Capabilities = %+v, want %+v", light.Capabilities, want)
	}
}

func TestNormalize_CopiesCommands(t *testing.T) {
	raw := transport.Light{
		DeviceID:          "dev-1",
		Model:             "bulb-a",
		SupportedCommands: []string{"Power"},
	}

	light := Normalize(raw)
	raw.SupportedCommands[0] = "mutated"

	if light.SupportedCommands[0] != "Power" {
		t.Error("SupportedCommands shares backing array with raw record")
	}
}

func TestCapabilitiesFrom(t *testing.T) {
	tests := []struct {
		name     string
		commands []string
		want     Capabilities
	}{
		{"empty", nil, Capabilities{}},
		{"all", []string{"Power", "Brightness", "Color", "ColorTemperature", "Scene"},
			Capabilities{Power: true, Brightness: true, Color: true, ColorTemperature: true, Scenes: true}},
		{"unknown ignored", []string{"Power", "Disco"}, Capabilities{Power: true}},
		{"scene only", []string{"Scene"}, Capabilities{Scenes: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := capabilitiesFrom(tt.commands); got != tt.want {
				t.Errorf("capabilitiesFrom(%v) = %+v, want %+v", tt.commands, got, tt.want)
			}
		})
	}
}
