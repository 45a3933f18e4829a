package emt

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// stopIDPattern is the shape of a stop id users may ask about.
var stopIDPattern = regexp.MustCompile(`^\d{1,5}$`)

const (
	StopNotFoundMessage = "No encuentro la parada"
	NoArrivalsMessage   = "No hay autobuses previstos en la parada"

	// NoEstimate is the busTimeLeft the backend reports when it has no reliable estimate.
	NoEstimate = 999999
	// NoEstimateMinutes is what we display for NoEstimate.
	NoEstimateMinutes = 20
)

// ValidStopID reports whether id is 1 to 5 digits.
func ValidStopID(id string) bool {
	return stopIDPattern.MatchString(id)
}

// Minutes converts a busTimeLeft value in seconds into whole minutes to display.
func Minutes(busTimeLeft float64) int {
	if busTimeLeft == NoEstimate {
		return NoEstimateMinutes
	}
	m := int(math.Floor(busTimeLeft / 60))
	if m < 0 {
		return 0
	}
	return m
}

// FormatArrival renders one fixed-width line: line id, destination, minutes.
// Longer values push the columns instead of being cut.
func FormatArrival(a Arrival) string {
	return fmt.Sprintf("%-4s %-15s %3dm\n", a.LineID, a.Destination, Minutes(a.BusTimeLeft))
}

// RenderArrivals renders a GetArriveStop response, one line per bus in backend order.
func RenderArrivals(content Response) (string, error) {
	raw, ok := content["arrives"]
	if !ok {
		return StopNotFoundMessage, nil
	}

	var arrivals OneOrMany[Arrival]
	if err := json.Unmarshal(raw, &arrivals); err != nil {
		return "", &DecodeError{Endpoint: EndpointArriveStop, Err: fmt.Errorf("arrives: %w", err)}
	}
	if len(arrivals) == 0 {
		return NoArrivalsMessage, nil
	}

	var b strings.Builder
	for _, a := range arrivals {
		b.WriteString(FormatArrival(a))
	}
	return b.String(), nil
}

// NodeLocation extracts resultValues.latitude/longitude from a GetNodesLines response.
// ok is false when the stop is unknown or the record carries no coordinates.
func NodeLocation(content Response) (Location, bool) {
	raw, ok := content["resultValues"]
	if !ok {
		return Location{}, false
	}

	var nodes OneOrMany[node]
	if err := json.Unmarshal(raw, &nodes); err != nil || len(nodes) == 0 {
		return Location{}, false
	}

	n := nodes[0]
	if n.Latitude == nil || n.Longitude == nil {
		return Location{}, false
	}
	return Location{Latitude: *n.Latitude, Longitude: *n.Longitude}, true
}
