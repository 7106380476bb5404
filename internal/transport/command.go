package transport

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Command names the control dimension a command addresses.
// The values match the command strings transports report in
// Light.SupportedCommands.
type Command string

// Known command kinds.
const (
	CommandPower            Command = "Power"
	CommandBrightness       Command = "Brightness"
	CommandColor            Command = "Color"
	CommandColorTemperature Command = "ColorTemperature"
	CommandScene            Command = "Scene"
)

// AllCommands returns all known command kinds.
func AllCommands() []Command {
	return []Command{
		CommandPower, CommandBrightness, CommandColor,
		CommandColorTemperature, CommandScene,
	}
}

// Payload is the typed argument of a command. Each known command kind has
// exactly one payload type; Kind ties the two together so requests can be
// validated at the orchestration boundary instead of passing opaque maps
// through.
type Payload interface {
	Kind() Command
	Validate() error
}

// PowerPayload switches a device on or off.
type PowerPayload struct {
	On bool `json:"on"`
}

// Kind implements Payload.
func (PowerPayload) Kind() Command { return CommandPower }

// Validate implements Payload.
func (PowerPayload) Validate() error { return nil }

// BrightnessPayload sets the brightness level as a percentage.
type BrightnessPayload struct {
	Level int `json:"level"`
}

// Kind implements Payload.
func (BrightnessPayload) Kind() Command { return CommandBrightness }

// Validate implements Payload.
func (p BrightnessPayload) Validate() error {
	if p.Level < 0 || p.Level > 100 {
		return fmt.Errorf("%w: brightness level %d out of range [0,100]", ErrInvalidCommand, p.Level)
	}
	return nil
}

// ColorPayload sets an RGB colour.
type ColorPayload struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Kind implements Payload.
func (ColorPayload) Kind() Command { return CommandColor }

// Validate implements Payload.
func (ColorPayload) Validate() error { return nil }

// ColorTemperaturePayload sets the white colour temperature in kelvin.
type ColorTemperaturePayload struct {
	Kelvin int `json:"kelvin"`
}

// Kind implements Payload.
func (ColorTemperaturePayload) Kind() Command { return CommandColorTemperature }

// Validate implements Payload.
func (p ColorTemperaturePayload) Validate() error {
	if p.Kelvin < 1000 || p.Kelvin > 10000 {
		return fmt.Errorf("%w: colour temperature %dK out of range [1000,10000]", ErrInvalidCommand, p.Kelvin)
	}
	return nil
}

// ScenePayload activates a named scene.
type ScenePayload struct {
	Scene string `json:"scene"`
}

// Kind implements Payload.
func (ScenePayload) Kind() Command { return CommandScene }

// Validate implements Payload.
func (p ScenePayload) Validate() error {
	if p.Scene == "" {
		return fmt.Errorf("%w: scene name is empty", ErrInvalidCommand)
	}
	return nil
}

// CommandRequest is a single outgoing device command.
// Requests are transient and never persisted.
type CommandRequest struct {
	DeviceID string
	Model    string
	Command  Command
	// Payload carries the command argument. It may be nil for commands
	// that a transport can interpret without one.
	Payload Payload
}

// Validate checks the request for structural errors before routing.
func (r CommandRequest) Validate() error {
	if r.DeviceID == "" {
		return fmt.Errorf("%w: device id is empty", ErrInvalidCommand)
	}
	if r.Model == "" {
		return fmt.Errorf("%w: model is empty", ErrInvalidCommand)
	}

	if !isKnownCommand(r.Command) {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, r.Command)
	}

	if r.Payload != nil {
		if r.Payload.Kind() != r.Command {
			return fmt.Errorf("%w: payload kind %q does not match command %q",
				ErrInvalidCommand, r.Payload.Kind(), r.Command)
		}
		if err := r.Payload.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ParseCommand resolves a command name to its canonical kind.
// Matching is case-insensitive so API clients can send "brightness"
// for CommandBrightness.
func ParseCommand(name string) (Command, error) {
	for _, c := range AllCommands() {
		if strings.EqualFold(name, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

func isKnownCommand(cmd Command) bool {
	switch cmd {
	case CommandPower, CommandBrightness, CommandColor, CommandColorTemperature, CommandScene:
		return true
	default:
		return false
	}
}

// ParsePayload decodes a JSON payload for the given command kind.
// This is the boundary where untyped wire data becomes a typed Payload;
// the result is validated before being returned.
func ParsePayload(cmd Command, data []byte) (Payload, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var payload Payload
	switch cmd {
	case CommandPower:
		var p PowerPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
		}
		payload = p
	case CommandBrightness:
		var p BrightnessPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
		}
		payload = p
	case CommandColor:
		var p ColorPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
		}
		payload = p
	case CommandColorTemperature:
		var p ColorTemperaturePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
		}
		payload = p
	case CommandScene:
		var p ScenePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
		}
		payload = p
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}

	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return payload, nil
}
