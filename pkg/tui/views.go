package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"emtbot/pkg/emt"

	"github.com/charmbracelet/huh/spinner"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Transit is the part of the EMT client the terminal views need.
type Transit interface {
	StopsFromXY(ctx context.Context, loc emt.Location) (emt.Response, error)
	ArriveStop(ctx context.Context, stopID string) (emt.Response, error)
	NodesLines(ctx context.Context, stopID string) (emt.Response, error)
}

var titleCaser = cases.Title(language.Spanish)

// ShowStops looks up the stops around loc and prints them.
func ShowStops(ctx context.Context, client Transit, loc emt.Location) error {
	var content emt.Response
	var err error

	_ = spinner.New().
		Title(fmt.Sprintf("Buscando paradas cerca de %v, %v...", loc.Latitude, loc.Longitude)).
		Action(func() {
			content, err = client.StopsFromXY(ctx, loc)
		}).
		Run()

	if err != nil {
		return fmt.Errorf("could not fetch stops: %w", err)
	}

	text, keyboard, err := emt.BuildStopsReply(content)
	if err != nil {
		return err
	}

	RenderStops(os.Stdout, loc, text, keyboard)
	return nil
}

// ShowArrivals prints the arrivals for stopID and, with withLocation, where the stop is.
func ShowArrivals(ctx context.Context, client Transit, stopID string, withLocation bool) error {
	var content emt.Response
	var err error

	_ = spinner.New().
		Title(fmt.Sprintf("Consultando la parada %s...", stopID)).
		Action(func() {
			content, err = client.ArriveStop(ctx, stopID)
		}).
		Run()

	if err != nil {
		return fmt.Errorf("could not fetch arrivals: %w", err)
	}

	text, err := emt.RenderArrivals(content)
	if err != nil {
		return err
	}
	RenderArrivals(os.Stdout, stopID, text)

	if !withLocation {
		return nil
	}

	// Like the chat flow, a missing location does not spoil the arrivals already shown
	nodes, err := client.NodesLines(ctx, stopID)
	if err != nil {
		fmt.Println(errorStyle.Render("No se pudo obtener la ubicación de la parada: " + err.Error()))
		return nil
	}
	loc, ok := emt.NodeLocation(nodes)
	RenderLocation(os.Stdout, loc, ok)
	return nil
}

// RenderStops prints a stops reply with stop names title-cased and the keyboard rows underneath.
func RenderStops(w io.Writer, loc emt.Location, text string, keyboard emt.Keyboard) {
	fmt.Fprintln(w, accentStyle.Render(fmt.Sprintf("\n--- 📍 Paradas cerca de %v, %v ---", loc.Latitude, loc.Longitude)))

	if len(keyboard) == 0 {
		fmt.Fprintln(w, errorStyle.Render(strings.TrimSpace(text)))
		return
	}

	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if strings.HasPrefix(line, "líneas:") {
			fmt.Fprintf(w, "  %s\n", dimStyle.Render(line))
			continue
		}
		fmt.Fprintln(w, lineStyle.Render(titleCaser.String(line)))
	}

	fmt.Fprintln(w)
	for _, row := range keyboard {
		fmt.Fprintf(w, "  [%s]\n", strings.Join(row, "] ["))
	}
	fmt.Fprintln(w)
}

// RenderArrivals prints the fixed-width arrival table under a heading.
func RenderArrivals(w io.Writer, stopID string, text string) {
	fmt.Fprintln(w, accentStyle.Render(fmt.Sprintf("\n--- 🚌 Parada %s ---", stopID)))

	if text == emt.StopNotFoundMessage || text == emt.NoArrivalsMessage {
		fmt.Fprintln(w, errorStyle.Render(text))
		return
	}

	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		// Keep the fixed-width layout, only colour the minutes column
		minutes := fields[len(fields)-1]
		cut := strings.LastIndex(line, minutes)
		fmt.Fprintf(w, "  %s%s\n", line[:cut], minutesStyle.Render(minutes))
	}
	fmt.Fprintln(w)
}

// RenderLocation prints the stop coordinates, or that they are unknown.
func RenderLocation(w io.Writer, loc emt.Location, ok bool) {
	if !ok {
		fmt.Fprintln(w, dimStyle.Render("Ubicación de la parada no disponible."))
		return
	}
	fmt.Fprintf(w, "🗺️  %v, %v\n", loc.Latitude, loc.Longitude)
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("https://www.openstreetmap.org/?mlat=%v&mlon=%v#map=18/%v/%v",
		loc.Latitude, loc.Longitude, loc.Latitude, loc.Longitude)))
}
