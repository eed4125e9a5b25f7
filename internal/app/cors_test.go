package app

import "testing"

func TestExtractOriginHost(t *testing.T) {
	tests := []struct {
		origin string
		want   string
	}{
		{origin: "https://app.example.com", want: "app.example.com"},
		{origin: "http://localhost:3000", want: "localhost:3000"},
		{origin: "not-a-url", want: "not-a-url"},
	}

	for _, tt := range tests {
		if got := extractOriginHost(tt.origin); got != tt.want {
			t.Fatalf("extractOriginHost(%q) = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestMatchOriginPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		host    string
		want    bool
	}{
		{name: "exact match", pattern: "app.example.com", host: "app.example.com", want: true},
		{name: "wildcard star", pattern: "*", host: "anything.at.all", want: true},
		{name: "subdomain wildcard", pattern: "*.example.com", host: "app.example.com", want: true},
		{name: "subdomain wildcard no match", pattern: "*.example.com", host: "example.org", want: false},
		{name: "port wildcard", pattern: "localhost:*", host: "localhost:3000", want: true},
		{name: "port wildcard no match", pattern: "localhost:*", host: "remotehost:3000", want: false},
		{name: "plain mismatch", pattern: "a.example.com", host: "b.example.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchOriginPattern(tt.pattern, tt.host); got != tt.want {
				t.Fatalf("matchOriginPattern(%q, %q) = %v, want %v", tt.pattern, tt.host, got, tt.want)
			}
		})
	}
}
