package emt

// Location is a WGS84 coordinate pair, as shared by the user or returned for a node
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Stop is one entry of the "stop" field returned by GetStopsFromXY
type Stop struct {
	StopID string          `json:"stopId"`
	Name   string          `json:"name"`
	Line   OneOrMany[Line] `json:"line"`
}

// Line holds the line code serving a stop, e.g. "27" or "N1"
type Line struct {
	Line string `json:"line"`
}

// Arrival is one entry of the "arrives" field returned by GetArriveStop
type Arrival struct {
	LineID      string  `json:"lineId"`
	Destination string  `json:"destination"`
	BusTimeLeft float64 `json:"busTimeLeft"` // seconds, or 999999 when there is no estimate
}

// node is the "resultValues" record returned by GetNodesLines
type node struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}
