package types

import "testing"

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		raw  string
		want Severity
	}{
		{"Extreme", SeverityExtreme},
		{"SEVERE", SeveritySevere},
		{"Moderate", SeverityModerate},
		{"Minor", SeverityMinor},
		{"extreme severe thunderstorm", SeverityExtreme},
		{"amtliche WARNUNG vor GEWITTER (severe)", SeveritySevere},
		{"unknown", SeverityMinor},
		{"", SeverityMinor},
	}
	for _, tt := range tests {
		if got := ClassifySeverity(tt.raw); got != tt.want {
			t.Errorf("ClassifySeverity(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSymbolForCode(t *testing.T) {
	intp := func(v int) *int { return &v }

	tests := []struct {
		name string
		code *int
		want string
	}{
		{"missing", nil, "❔"},
		{"clear", intp(0), "☀️"},
		{"mostly clear", intp(2), "☀️"},
		{"partly cloudy", intp(3), "⛅"},
		{"overcast-ish", intp(4), "⛅"},
		{"fog", intp(45), "🌫️"},
		{"freezing fog", intp(48), "🌫️"},
		{"drizzle", intp(51), "🌦️"},
		{"rain", intp(63), "🌦️"},
		{"freezing rain", intp(67), "🌦️"},
		{"snow", intp(71), "❄️"},
		{"snow grains", intp(77), "❄️"},
		{"showers", intp(80), "🌧️"},
		{"violent showers", intp(82), "🌧️"},
		{"thunderstorm", intp(95), "⛈️"},
		{"thunderstorm with hail", intp(99), "⛈️"},
		{"haze falls back to cloud", intp(5), "☁️"},
		{"unmapped falls back to cloud", intp(30), "☁️"},
	}
	for _, tt := range tests {
		if got := SymbolForCode(tt.code); got != tt.want {
			t.Errorf("%s: SymbolForCode = %q, want %q", tt.name, got, tt.want)
		}
	}
}
