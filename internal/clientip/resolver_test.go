package clientip

import (
	"net/http"
	"testing"
)

func headers(pairs ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Add(pairs[i], pairs[i+1])
	}
	return h
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name          string
		headers       http.Header
		peer          string
		preferPrivate bool
		want          string
	}{
		{
			name:    "x-forwarded-for leftmost public",
			headers: headers("X-Forwarded-For", "203.0.113.5, 10.0.0.1"),
			peer:    "10.0.0.2:4444",
			want:    "203.0.113.5",
		},
		{
			name:    "forwarded for with quoted port",
			headers: headers("Forwarded", `for="198.51.100.2:1234"`),
			peer:    "10.0.0.2:4444",
			want:    "198.51.100.2",
		},
		{
			name:    "forwarded with proto and by params",
			headers: headers("Forwarded", "proto=https;for=198.51.100.7;by=10.0.0.1"),
			peer:    "10.0.0.2:4444",
			want:    "198.51.100.7",
		},
		{
			name: "forwarded beats vendor header",
			headers: headers(
				"Forwarded", "for=198.51.100.2",
				"Cf-Connecting-Ip", "203.0.113.9",
			),
			peer: "10.0.0.2:4444",
			want: "198.51.100.2",
		},
		{
			name: "vendor header beats x-forwarded-for",
			headers: headers(
				"X-Real-Ip", "203.0.113.9",
				"X-Forwarded-For", "198.51.100.2",
			),
			peer: "10.0.0.2:4444",
			want: "203.0.113.9",
		},
		{
			name: "private forwarded falls through to public xff",
			headers: headers(
				"Forwarded", "for=10.1.2.3",
				"X-Forwarded-For", "203.0.113.5",
			),
			peer: "10.0.0.2:4444",
			want: "203.0.113.5",
		},
		{
			name:    "loopback peer only",
			headers: headers(),
			peer:    "::1",
			want:    "::1",
		},
		{
			name:    "peer with port",
			headers: headers(),
			peer:    "198.51.100.9:55123",
			want:    "198.51.100.9",
		},
		{
			name:    "bracketed ipv6 peer",
			headers: headers(),
			peer:    "[2001:db8::1]:443",
			want:    "2001:db8::1",
		},
		{
			name:    "ipv6 literal left intact",
			headers: headers("X-Forwarded-For", "2001:db8::2"),
			peer:    "10.0.0.2:4444",
			want:    "2001:db8::2",
		},
		{
			name:    "ipv4-mapped prefix unwrapped",
			headers: headers("X-Forwarded-For", "::ffff:203.0.113.6"),
			peer:    "10.0.0.2:4444",
			want:    "203.0.113.6",
		},
		{
			name:          "prefer private picks first valid",
			headers:       headers("X-Forwarded-For", "10.0.0.5, 8.8.8.8"),
			peer:          "192.168.0.1:1000",
			preferPrivate: true,
			want:          "10.0.0.5",
		},
		{
			name:    "all private falls back to first valid",
			headers: headers("X-Forwarded-For", "192.168.1.50, 10.0.0.1"),
			peer:    "127.0.0.1:9999",
			want:    "192.168.1.50",
		},
		{
			name:    "garbage candidates skipped",
			headers: headers("X-Forwarded-For", "not-an-ip, , 203.0.113.5"),
			peer:    "10.0.0.2:4444",
			want:    "203.0.113.5",
		},
		{
			name:    "nothing parses",
			headers: headers("X-Forwarded-For", "garbage"),
			peer:    "also-garbage",
			want:    Unknown,
		},
		{
			name:    "link local is private",
			headers: headers("X-Forwarded-For", "169.254.1.1, 203.0.113.5"),
			peer:    "10.0.0.2:4444",
			want:    "203.0.113.5",
		},
		{
			name:    "ipv6 unique local is private",
			headers: headers("X-Forwarded-For", "fd12:3456::1, 203.0.113.5"),
			peer:    "10.0.0.2:4444",
			want:    "203.0.113.5",
		},
		{
			name:    "ipv6 link local is private",
			headers: headers("X-Forwarded-For", "fe80::1, 203.0.113.5"),
			peer:    "10.0.0.2:4444",
			want:    "203.0.113.5",
		},
		{
			name:    "whitespace trimmed",
			headers: headers("X-Forwarded-For", "  203.0.113.5  "),
			peer:    "10.0.0.2:4444",
			want:    "203.0.113.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.headers, tt.peer, tt.preferPrivate)
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	h := headers("X-Forwarded-For", "10.0.0.5, 203.0.113.8")

	res := Inspect(h, "192.168.0.1:1000")
	if res.Public != "203.0.113.8" {
		t.Errorf("Public: got %q, want %q", res.Public, "203.0.113.8")
	}
	if res.FirstValid != "10.0.0.5" {
		t.Errorf("FirstValid: got %q, want %q", res.FirstValid, "10.0.0.5")
	}
}

func TestInspectNothingValid(t *testing.T) {
	res := Inspect(headers(), "bogus")
	if res.Public != Unknown || res.FirstValid != Unknown {
		t.Errorf("got %+v, want both %q", res, Unknown)
	}
}
