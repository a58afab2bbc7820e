package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTristateJSON(t *testing.T) {
	tests := []struct {
		state Tristate
		want  string
	}{
		{Yes, "true"},
		{No, "false"},
		{Unknown, "null"},
	}
	for _, tt := range tests {
		b, err := json.Marshal(tt.state)
		if err != nil {
			t.Fatalf("marshal %s: %v", tt.state, err)
		}
		if string(b) != tt.want {
			t.Errorf("marshal %s = %s; want %s", tt.state, b, tt.want)
		}
	}
}

func TestTristateZeroValueIsUnknown(t *testing.T) {
	var p Property
	if p.HasGarden != Unknown {
		t.Error("unset amenity must be unknown, not no")
	}
	if p.HasGarden.String() != "unknown" {
		t.Errorf("String() = %q", p.HasGarden.String())
	}
}

func TestPropertyJSONKeepsNulls(t *testing.T) {
	p := Property{ID: "openrent:1", Source: SourceOpenRent, Title: "Two bed flat"}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	// Absent optional fields export as explicit nulls so consumers can tell
	// "unknown" from zero.
	for _, want := range []string{`"price":null`, `"bedrooms":null`, `"has_garden":null`, `"match_score":null`} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON missing %s in %s", want, s)
		}
	}
}

func TestKnownSourcesComplete(t *testing.T) {
	if got := len(KnownSources()); got != 6 {
		t.Errorf("KnownSources() has %d entries; want 6", got)
	}
}
