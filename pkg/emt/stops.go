package emt

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	NoStopsMessage = "No encuentro paradas alrededor"

	// KeyboardRowSize is the number of stop buttons per keyboard row.
	KeyboardRowSize = 2
)

// Keyboard is a reply keyboard: rows of button labels.
type Keyboard [][]string

// StopButton is the keyboard label for a stop. Sending it back asks for that stop's arrivals.
func StopButton(stopID string) string {
	return "Parada " + stopID
}

// RenderStop formats a stop as "<id> <name>" followed by the lines serving it.
func RenderStop(stop Stop) string {
	codes := make([]string, 0, len(stop.Line))
	for _, l := range stop.Line {
		codes = append(codes, l.Line)
	}

	var b strings.Builder
	b.WriteString(stop.StopID + " " + stop.Name + "\n")
	b.WriteString("líneas: " + strings.Join(codes, ", ") + "\n")
	return b.String()
}

// BuildStopsReply renders a GetStopsFromXY response as message text plus a keyboard
// with one button per stop, in the order the backend listed them.
func BuildStopsReply(content Response) (string, Keyboard, error) {
	raw, ok := content["stop"]
	if !ok {
		return NoStopsMessage, Keyboard{}, nil
	}

	var stops OneOrMany[Stop]
	if err := json.Unmarshal(raw, &stops); err != nil {
		return "", nil, &DecodeError{Endpoint: EndpointStopsFromXY, Err: fmt.Errorf("stop: %w", err)}
	}
	if len(stops) == 0 {
		return NoStopsMessage, Keyboard{}, nil
	}

	var text strings.Builder
	buttons := make([]string, 0, len(stops))
	for _, stop := range stops {
		text.WriteString(RenderStop(stop))
		buttons = append(buttons, StopButton(stop.StopID))
	}

	return text.String(), BuildKeyboard(buttons), nil
}

// BuildKeyboard groups labels into rows of KeyboardRowSize, keeping their order.
func BuildKeyboard(labels []string) Keyboard {
	keyboard := Keyboard{}
	row := make([]string, 0, KeyboardRowSize)

	for _, label := range labels {
		row = append(row, label)
		if len(row) == KeyboardRowSize {
			keyboard = append(keyboard, row)
			row = make([]string, 0, KeyboardRowSize)
		}
	}
	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}

	return keyboard
}
