package emt

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func decodeResponse(t *testing.T, body string) Response {
	t.Helper()
	var content Response
	if err := json.Unmarshal([]byte(body), &content); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return content
}

func TestRenderStop(t *testing.T) {
	stop := Stop{
		StopID: "1000",
		Name:   "Callao",
		Line:   OneOrMany[Line]{{Line: "3"}, {Line: "44"}, {Line: "N16"}},
	}

	expected := "1000 Callao\nlíneas: 3, 44, N16\n"
	if got := RenderStop(stop); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestBuildStopsReply_SingleStop(t *testing.T) {
	content := decodeResponse(t, `{"stop": {"stopId": "1000", "name": "Callao", "line": {"line": "3"}}}`)

	text, keyboard, err := BuildStopsReply(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if text != "1000 Callao\nlíneas: 3\n" {
		t.Errorf("unexpected text %q", text)
	}
	if !reflect.DeepEqual(keyboard, Keyboard{{"Parada 1000"}}) {
		t.Errorf("unexpected keyboard %v", keyboard)
	}
}

func TestBuildStopsReply_StopList(t *testing.T) {
	content := decodeResponse(t, `{"stop": [
		{"stopId": "1", "name": "A", "line": {"line": "1"}},
		{"stopId": "2", "name": "B", "line": {"line": "2"}},
		{"stopId": "3", "name": "C", "line": {"line": "3"}}
	]}`)

	text, keyboard, err := BuildStopsReply(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedText := "1 A\nlíneas: 1\n2 B\nlíneas: 2\n3 C\nlíneas: 3\n"
	if text != expectedText {
		t.Errorf("expected %q, got %q", expectedText, text)
	}

	expectedKeyboard := Keyboard{{"Parada 1", "Parada 2"}, {"Parada 3"}}
	if !reflect.DeepEqual(keyboard, expectedKeyboard) {
		t.Errorf("expected %v, got %v", expectedKeyboard, keyboard)
	}
}

func TestBuildStopsReply_NoStops(t *testing.T) {
	for _, body := range []string{`{}`, `{"stop": null}`, `{"stop": []}`} {
		text, keyboard, err := BuildStopsReply(decodeResponse(t, body))
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", body, err)
		}
		if text != NoStopsMessage {
			t.Errorf("expected %q for %s, got %q", NoStopsMessage, body, text)
		}
		if keyboard == nil || len(keyboard) != 0 {
			t.Errorf("expected empty keyboard for %s, got %v", body, keyboard)
		}
	}
}

func TestBuildStopsReply_Malformed(t *testing.T) {
	_, _, err := BuildStopsReply(decodeResponse(t, `{"stop": "1000"}`))
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestBuildKeyboard_Shape(t *testing.T) {
	for n := 0; n <= 7; n++ {
		labels := make([]string, n)
		for i := range labels {
			labels[i] = StopButton(fmt.Sprint(i))
		}

		keyboard := BuildKeyboard(labels)

		if want := (n + 1) / 2; len(keyboard) != want {
			t.Errorf("n=%d: expected %d rows, got %d", n, want, len(keyboard))
		}

		var flat []string
		for i, row := range keyboard {
			if i < len(keyboard)-1 && len(row) != KeyboardRowSize {
				t.Errorf("n=%d: row %d has %d buttons", n, i, len(row))
			}
			if len(row) == 0 || len(row) > KeyboardRowSize {
				t.Errorf("n=%d: row %d has invalid size %d", n, i, len(row))
			}
			flat = append(flat, row...)
		}
		if n > 0 && !reflect.DeepEqual(flat, labels) {
			t.Errorf("n=%d: button order changed: %v", n, flat)
		}
	}
}
