package perf

import (
	"errors"
	"math"
	"slices"
	"testing"

	"golang.org/x/text/language"
)

var defaultTag = language.English

func TestValidate(t *testing.T) {
	valid := DefaultDisplayOptions()
	tests := []struct {
		name   string
		mutate func(*DisplayOptions)
		field  string
	}{
		{"default", func(*DisplayOptions) {}, ""},
		{"interval one", func(o *DisplayOptions) { o.UpdateIntervalMs = 1 }, ""},
		{"opacity bounds", func(o *DisplayOptions) { o.BackgroundOpacity = 1 }, ""},
		{"zero interval", func(o *DisplayOptions) { o.UpdateIntervalMs = 0 }, "UpdateIntervalMs"},
		{"negative interval", func(o *DisplayOptions) { o.UpdateIntervalMs = -1 }, "UpdateIntervalMs"},
		{"opacity high", func(o *DisplayOptions) { o.BackgroundOpacity = 1.01 }, "BackgroundOpacity"},
		{"opacity low", func(o *DisplayOptions) { o.BackgroundOpacity = -0.1 }, "BackgroundOpacity"},
		{"opacity NaN", func(o *DisplayOptions) { o.BackgroundOpacity = math.NaN() }, "BackgroundOpacity"},
		{"unknown flag", func(o *DisplayOptions) { o.Flags = 1 << 7 }, "Flags"},
		{"unknown corner", func(o *DisplayOptions) { o.Position = 9 }, "Position"},
		{"nil metric", func(o *DisplayOptions) { o.CustomMetrics = map[string]MetricFunc{"x": nil} }, "CustomMetrics"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid
			tt.mutate(&o)
			err := o.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			var ce *ConfigError
			if !errors.As(err, &ce) || !errors.Is(err, ErrConfiguration) || ce.Field != tt.field {
				t.Errorf("Validate() = %v, want *ConfigError on %s", err, tt.field)
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		in   []string
		want Flags
	}{
		{nil, 0},
		{[]string{"fps"}, ShowFPS},
		{[]string{" FPS ", "triangles"}, ShowFPS | ShowTriangleCount},
		{[]string{"all"}, ShowAll},
		{[]string{"none", ""}, 0},
	}
	for _, tt := range tests {
		got, err := ParseFlags(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFlags(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseFlags([]string{"vsync"}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("ParseFlags(unknown) error = %v", err)
	}
}

func TestFlagsStringRoundTrip(t *testing.T) {
	for f := Flags(0); f <= ShowAll; f++ {
		got, err := ParseFlags(splitComma(f.String()))
		if err != nil || got != f {
			t.Errorf("ParseFlags(%q) = %v, %v; want %v", f.String(), got, err, f)
		}
	}
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := range len(s) + 1 {
		if i == len(s) || s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}

func TestParseCorner(t *testing.T) {
	for c := TopLeft; c <= BottomRight; c++ {
		got, err := ParseCorner(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCorner(%q) = %v, %v", c.String(), got, err)
		}
	}
	if _, err := ParseCorner("center"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("ParseCorner(center) error = %v", err)
	}
}

func TestSnapshotLines(t *testing.T) {
	fps, ms := 1234.5, 16.666
	draws := 12000
	s := Snapshot{
		FPS:         &fps,
		FrameTimeMs: &ms,
		DrawCalls:   &draws,
		Custom:      map[string]string{"zeta": "z", "alpha": "a"},
	}

	want := []string{"FPS: 1,234.5", "Frame: 16.67 ms", "Draw calls: 12,000", "alpha: a", "zeta: z"}
	if got := s.Lines(language.English); !slices.Equal(got, want) {
		t.Errorf("Lines(en) = %q, want %q", got, want)
	}

	de := s.Lines(language.German)
	if de[0] != "FPS: 1.234,5" {
		t.Errorf("Lines(de)[0] = %q, want %q", de[0], "FPS: 1.234,5")
	}
}
