package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"emtbot/pkg/emt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// EMT red
const accentColor = "160"

var (
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(accentColor)).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	lineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	minutesStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Theme returns the huh theme used by every form.
func Theme() *huh.Theme {
	t := huh.ThemeCharm()
	p := lipgloss.Color(accentColor)

	t.Focused.Title = t.Focused.Title.Foreground(p).Bold(true)
	t.Focused.Base = t.Focused.Base.Border(lipgloss.RoundedBorder()).BorderForeground(p).Padding(0, 1)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(p)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(p)
	t.Focused.TextInput.Cursor = t.Focused.TextInput.Cursor.Foreground(p)
	t.Focused.TextInput.Prompt = t.Focused.TextInput.Prompt.Foreground(p)
	t.Focused.FocusedButton = t.Focused.FocusedButton.Foreground(lipgloss.Color("0")).Background(p)

	t.Blurred.Base = t.Blurred.Base.Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)

	return t
}

// RunTUI launches the main menu and runs the chosen query against client.
func RunTUI(ctx context.Context, client Transit) error {
	var action string

	menu := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("¿Qué quieres consultar?").
				Options(
					huh.NewOption("📍 Paradas cercanas", "stops"),
					huh.NewOption("🚌 Tiempo de llegada", "arrivals"),
					huh.NewOption("🗺️ Tiempo de llegada y ubicación", "arrivals_location"),
				).
				Value(&action),
		),
	).WithTheme(Theme())

	if err := menu.Run(); err != nil {
		return err
	}

	if action == "stops" {
		return runStopsForm(ctx, client)
	}
	return runArrivalsForm(ctx, client, action == "arrivals_location")
}

func runStopsForm(ctx context.Context, client Transit) error {
	var lat, lon string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Latitud").
				Placeholder("40.4168").
				Validate(validateCoordinate(90)).
				Value(&lat),
			huh.NewInput().
				Title("Longitud").
				Placeholder("-3.7038").
				Validate(validateCoordinate(180)).
				Value(&lon),
		),
	).WithTheme(Theme())

	if err := form.Run(); err != nil {
		return err
	}

	// Already validated
	latitude, _ := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	longitude, _ := strconv.ParseFloat(strings.TrimSpace(lon), 64)

	return ShowStops(ctx, client, emt.Location{Latitude: latitude, Longitude: longitude})
}

func runArrivalsForm(ctx context.Context, client Transit, withLocation bool) error {
	var stopID string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Número de parada").
				Placeholder("1000").
				Validate(func(s string) error {
					if !emt.ValidStopID(strings.TrimSpace(s)) {
						return errors.New("el número de parada tiene entre 1 y 5 dígitos")
					}
					return nil
				}).
				Value(&stopID),
		),
	).WithTheme(Theme())

	if err := form.Run(); err != nil {
		return err
	}

	return ShowArrivals(ctx, client, strings.TrimSpace(stopID), withLocation)
}

func validateCoordinate(limit float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return errors.New("introduce un número decimal")
		}
		if v < -limit || v > limit {
			return fmt.Errorf("debe estar entre %v y %v", -limit, limit)
		}
		return nil
	}
}
