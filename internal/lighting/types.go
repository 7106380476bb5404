package lighting

import (
	"fmt"

	"github.com/lumina-home/lumina-core/internal/transport"
)

// Capabilities is the normalized control surface of a light, derived from
// the command strings its transport reports. API consumers read these
// booleans instead of parsing command lists.
type Capabilities struct {
	Power            bool `json:"power"`
	Brightness       bool `json:"brightness"`
	Color            bool `json:"color"`
	ColorTemperature bool `json:"color_temperature"`
	Scenes           bool `json:"scenes"`
}

// Light is the normalized device record served by the device service.
// Identity is the (DeviceID, Model) pair; Value is the pair joined with
// "|" for consumers that need a single opaque key.
type Light struct {
	DeviceID          string       `json:"device_id"`
	Model             string       `json:"model"`
	Name              string       `json:"name"`
	Label             string       `json:"label"`
	Value             string       `json:"value"`
	Controllable      bool         `json:"controllable"`
	Retrievable       bool         `json:"retrievable"`
	SupportedCommands []string     `json:"supported_commands"`
	Capabilities      Capabilities `json:"capabilities"`
}

// Key returns the canonical identity of the device.
func (l Light) Key() transport.DeviceKey {
	return transport.DeviceKey{DeviceID: l.DeviceID, Model: l.Model}
}

// Normalize converts a raw transport record into the service's Light,
// deriving Value and Capabilities.
func Normalize(raw transport.Light) Light {
	return Light{
		DeviceID:          raw.DeviceID,
		Model:             raw.Model,
		Name:              raw.Name,
		Label:             raw.Label,
		Value:             fmt.Sprintf("%s|%s", raw.DeviceID, raw.Model),
		Controllable:      raw.Controllable,
		Retrievable:       raw.Retrievable,
		SupportedCommands: append([]string(nil), raw.SupportedCommands...),
		Capabilities:      capabilitiesFrom(raw.SupportedCommands),
	}
}

// NormalizeAll converts a slice of raw records, preserving order.
func NormalizeAll(raw []transport.Light) []Light {
	lights := make([]Light, len(raw))
	for i, r := range raw {
		lights[i] = Normalize(r)
	}
	return lights
}

// capabilitiesFrom maps command strings onto the capability booleans.
// Unknown command strings are ignored.
func capabilitiesFrom(commands []string) Capabilities {
	var caps Capabilities
	for _, cmd := range commands {
		switch transport.Command(cmd) {
		case transport.CommandPower:
			caps.Power = true
		case transport.CommandBrightness:
			caps.Brightness = true
		case transport.CommandColor:
			caps.Color = true
		case transport.CommandColorTemperature:
			caps.ColorTemperature = true
		case transport.CommandScene:
			caps.Scenes = true
		}
	}
	return caps
}
