package model

import "testing"

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercase passthrough", input: "jane@acme.com", want: "jane@acme.com"},
		{name: "mixed case", input: "Jane.Doe@Acme.COM", want: "jane.doe@acme.com"},
		{name: "surrounding whitespace", input: "  jane@acme.com  ", want: "jane@acme.com"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeEmail(tt.input); got != tt.want {
				t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "formatted", input: "(555) 123-4567", want: "5551234567"},
		{name: "country code", input: "+1 555 123 4567", want: "5551234567"},
		{name: "eleven digits without plus", input: "15551234567", want: "5551234567"},
		{name: "bare digits", input: "5551234567", want: "5551234567"},
		{name: "leading one kept on ten digits", input: "1551234567", want: "1551234567"},
		{name: "no digits", input: "ext.", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeCompanyName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "llc with comma", input: "ABC Lending, LLC", want: "abc lending"},
		{name: "inc with period", input: "Acme Inc.", want: "acme"},
		{name: "corp", input: "Widget Corp", want: "widget"},
		{name: "dotted llc", input: "First Rate L.L.C.", want: "first rate"},
		{name: "no suffix", input: "Evergreen Holdings", want: "evergreen holdings"},
		{name: "suffix word in middle stays", input: "Coastal Inc Advisory", want: "coastal inc advisory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCompanyName(tt.input); got != tt.want {
				t.Errorf("NormalizeCompanyName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTimezoneFromState(t *testing.T) {
	tests := []struct {
		state string
		want  string
	}{
		{state: "NY", want: "eastern"},
		{state: "tx", want: "central"},
		{state: " CA ", want: "pacific"},
		{state: "HI", want: "hawaii"},
		{state: "ZZ", want: DefaultTimezone},
		{state: "", want: DefaultTimezone},
	}

	for _, tt := range tests {
		if got := TimezoneFromState(tt.state); got != tt.want {
			t.Errorf("TimezoneFromState(%q) = %q, want %q", tt.state, got, tt.want)
		}
	}
}
