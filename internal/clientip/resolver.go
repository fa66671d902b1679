// Package clientip derives a best-effort client IP from a chain of
// possibly-spoofable proxy headers. The result is audit metadata only and
// must never be used as an authorization input.
package clientip

import (
	"net/http"
	"net/netip"
	"strings"
)

// Unknown is returned when no candidate parses as a valid IP address.
const Unknown = "unknown"

// Single-value vendor headers, in priority order. They sit between the
// Forwarded header and X-Forwarded-For.
var vendorHeaders = []string{
	"cf-connecting-ip",
	"true-client-ip",
	"x-real-ip",
	"x-client-ip",
	"fastly-client-ip",
	"x-cluster-client-ip",
	"fly-client-ip",
}

// Result carries both selections for the diagnostic endpoint: the
// public-preferred pick and the first syntactically valid candidate
// regardless of classification.
type Result struct {
	Public     string `json:"public"`
	FirstValid string `json:"first_valid"`
}

// Resolve walks all candidate sources in priority order (Forwarded for=
// tokens, vendor headers, X-Forwarded-For left to right, then the
// transport peer address) and returns the first candidate that parses and
// is classified public. With preferPrivate set, the first valid candidate
// of any classification wins instead. If no candidate satisfies the rule,
// the first valid candidate of any classification is the fallback; if
// nothing parses at all, Unknown is returned.
func Resolve(headers http.Header, peerAddr string, preferPrivate bool) string {
	return pick(candidates(headers, peerAddr), preferPrivate)
}

// Inspect returns both the public-preferred and first-valid results at
// once, for operators who need to see both.
func Inspect(headers http.Header, peerAddr string) Result {
	cands := candidates(headers, peerAddr)
	return Result{
		Public:     pick(cands, false),
		FirstValid: pick(cands, true),
	}
}

// candidates collects every source in strict priority order. All sources
// are examined; selection happens later, by priority, not by first-found.
func candidates(headers http.Header, peerAddr string) []string {
	var out []string

	for _, v := range headers.Values("Forwarded") {
		for _, elem := range strings.Split(v, ",") {
			for _, param := range strings.Split(elem, ";") {
				name, val, ok := strings.Cut(strings.TrimSpace(param), "=")
				if ok && strings.EqualFold(name, "for") {
					out = append(out, strings.Trim(val, `"`))
				}
			}
		}
	}

	for _, name := range vendorHeaders {
		if v := headers.Get(name); v != "" {
			out = append(out, v)
		}
	}

	// Leftmost X-Forwarded-For entry is the original client, per convention.
	for _, v := range headers.Values("X-Forwarded-For") {
		for _, part := range strings.Split(v, ",") {
			out = append(out, strings.TrimSpace(part))
		}
	}

	out = append(out, peerAddr)
	return out
}

func pick(cands []string, preferPrivate bool) string {
	firstValid := ""
	for _, c := range cands {
		addr, ok := normalize(c)
		if !ok {
			continue
		}
		if firstValid == "" {
			firstValid = addr.String()
		}
		if preferPrivate || !isPrivate(addr) {
			return addr.String()
		}
	}
	if firstValid != "" {
		return firstValid
	}
	return Unknown
}

// normalize trims a candidate, strips bracket and port forms, and unwraps
// IPv4-mapped IPv6 addresses. IPv6 literals contain more than one colon
// and are left intact.
func normalize(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		if end := strings.Index(s, "]"); end != -1 {
			s = s[1:end]
		}
	} else if strings.Count(s, ":") == 1 {
		s, _, _ = strings.Cut(s, ":")
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// isPrivate classifies loopback, RFC 1918 / unique-local, and link-local
// ranges as private.
func isPrivate(addr netip.Addr) bool {
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast()
}
