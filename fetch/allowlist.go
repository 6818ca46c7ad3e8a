package fetch

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// allowRule is one host match entered into an OutboundAllowlist,
// either as an allow or a deny rule.
type allowRule struct {
	host    string // exact host, or a single-"*" wildcard pattern
	pattern bool
}

// OutboundAllowlist is the ordered scheme -> port -> host check every
// outbound fetch is run through before a request is issued. Deny rules
// override allow rules; exact-host rules override pattern rules.
//
// Grounded directly on original_source/crates/edge-security/src/
// allowlist.rs, read in full: deny_pattern/deny_exact/with_schemes/
// allow_http/with_ports/allow_localhost/allow_private_ips/
// default_allow/check_url/check_host, including the
// deny-exact -> deny-pattern -> allow-exact -> allow-pattern ->
// default-policy precedence order.
type OutboundAllowlist struct {
	allowExact   map[string]bool
	allowPattern []string
	denyExact    map[string]bool
	denyPattern  []string

	schemes         map[string]bool
	ports           map[int]bool
	allowLocalhost  bool
	allowPrivateIPs bool
	defaultAllow    bool
}

// NewOutboundAllowlist starts a deny-by-default allowlist permitting
// only https on port 443.
func NewOutboundAllowlist() *OutboundAllowlist {
	return &OutboundAllowlist{
		allowExact: map[string]bool{},
		denyExact:  map[string]bool{},
		schemes:    map[string]bool{"https": true},
		ports:      map[int]bool{443: true},
	}
}

func (a *OutboundAllowlist) AllowHost(host string) *OutboundAllowlist {
	a.allowExact[strings.ToLower(host)] = true
	return a
}

func (a *OutboundAllowlist) AllowPattern(pattern string) *OutboundAllowlist {
	a.allowPattern = append(a.allowPattern, strings.ToLower(pattern))
	return a
}

func (a *OutboundAllowlist) DenyHost(host string) *OutboundAllowlist {
	a.denyExact[strings.ToLower(host)] = true
	return a
}

func (a *OutboundAllowlist) DenyPattern(pattern string) *OutboundAllowlist {
	a.denyPattern = append(a.denyPattern, strings.ToLower(pattern))
	return a
}

func (a *OutboundAllowlist) WithSchemes(schemes ...string) *OutboundAllowlist {
	a.schemes = map[string]bool{}
	for _, s := range schemes {
		a.schemes[strings.ToLower(s)] = true
	}
	return a
}

func (a *OutboundAllowlist) AllowHTTP() *OutboundAllowlist {
	a.schemes["http"] = true
	return a
}

func (a *OutboundAllowlist) WithPorts(ports ...int) *OutboundAllowlist {
	a.ports = map[int]bool{}
	for _, p := range ports {
		a.ports[p] = true
	}
	return a
}

func (a *OutboundAllowlist) AllowLocalhost() *OutboundAllowlist {
	a.allowLocalhost = true
	return a
}

func (a *OutboundAllowlist) AllowPrivateIPs() *OutboundAllowlist {
	a.allowPrivateIPs = true
	return a
}

// DefaultAllow makes the allowlist permissive: any host not explicitly
// denied is allowed, subject to scheme/port checks. Localhost and
// private IPs still need AllowLocalhost/AllowPrivateIPs (or an
// explicit allow rule).
func (a *OutboundAllowlist) DefaultAllow() *OutboundAllowlist {
	a.defaultAllow = true
	return a
}

func defaultPort(scheme string) int {
	switch scheme {
	case "https":
		return 443
	case "http":
		return 80
	default:
		return 0
	}
}

func isLocalhost(host string) bool {
	h := strings.ToLower(host)
	return h == "localhost" || h == "127.0.0.1" || h == "::1"
}

func isPrivateIP(host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	if ip4 := ip.To4(); ip4 != nil {
		switch {
		case ip4[0] == 10:
			return true
		case ip4[0] == 192 && ip4[1] == 168:
			return true
		case ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31:
			return true
		}
		return false
	}
	return ip.IsPrivate()
}

// matchesPattern matches a single-wildcard pattern: "*.example.com"
// (suffix), "api.*" (prefix), or "api*.com" (prefix and suffix). A
// pattern with more than one "*", such as "*mid*", falls back to a
// plain substring/contains check against the literal pattern with
// wildcards stripped, matching the reference's lenient fallback.
func matchesPattern(pattern, host string) bool {
	count := strings.Count(pattern, "*")
	switch count {
	case 0:
		return pattern == host
	case 1:
		idx := strings.IndexByte(pattern, '*')
		prefix, suffix := pattern[:idx], pattern[idx+1:]
		return strings.HasPrefix(host, prefix) && strings.HasSuffix(host, suffix) && len(host) >= len(prefix)+len(suffix)
	default:
		stripped := strings.ReplaceAll(pattern, "*", "")
		return strings.Contains(host, stripped)
	}
}

// ParsedURL is a minimal breakdown of an outbound fetch target.
type ParsedURL struct {
	Scheme string
	Host   string
	Port   int
}

func parseOutboundURL(raw string) (ParsedURL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ParsedURL{}, RequestError("invalid url: " + err.Error())
	}
	if u.Scheme == "" || u.Host == "" {
		return ParsedURL{}, RequestError("url missing scheme or host")
	}

	host := u.Hostname()
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")

	port := 0
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return ParsedURL{}, RequestError("invalid port in url")
		}
	} else {
		port = defaultPort(u.Scheme)
	}

	return ParsedURL{Scheme: strings.ToLower(u.Scheme), Host: strings.ToLower(host), Port: port}, nil
}

// CheckHost runs only the host-matching portion of the allowlist,
// in deny-exact -> deny-pattern -> allow-exact -> allow-pattern ->
// default-policy order.
func (a *OutboundAllowlist) CheckHost(host string) error {
	host = strings.ToLower(host)

	if a.denyExact[host] {
		return &LimitsError{Kind: HostNotAllowed}
	}
	for _, p := range a.denyPattern {
		if matchesPattern(p, host) {
			return &LimitsError{Kind: HostNotAllowed}
		}
	}

	if a.allowExact[host] {
		return nil
	}
	for _, p := range a.allowPattern {
		if matchesPattern(p, host) {
			return nil
		}
	}

	if a.allowLocalhost && isLocalhost(host) {
		return nil
	}
	if a.allowPrivateIPs && isPrivateIP(host) {
		return nil
	}
	if isLocalhost(host) || isPrivateIP(host) {
		return &LimitsError{Kind: HostNotAllowed}
	}

	if a.defaultAllow {
		return nil
	}
	return &LimitsError{Kind: HostNotAllowed}
}

// CheckURL validates scheme, port, and host against the allowlist, in
// that order, returning the parsed URL on success for the caller to
// issue the request against.
func (a *OutboundAllowlist) CheckURL(raw string) (ParsedURL, error) {
	p, err := parseOutboundURL(raw)
	if err != nil {
		return ParsedURL{}, err
	}

	if !a.schemes[p.Scheme] {
		return ParsedURL{}, &LimitsError{Kind: SchemeNotAllowed}
	}
	if len(a.ports) > 0 && !a.ports[p.Port] {
		return ParsedURL{}, &LimitsError{Kind: PortNotAllowed}
	}
	if err := a.CheckHost(p.Host); err != nil {
		return ParsedURL{}, err
	}
	return p, nil
}

// Summary describes the allowlist's current configuration, for
// logging and debugging.
func (a *OutboundAllowlist) Summary() string {
	var schemes []string
	for s := range a.schemes {
		schemes = append(schemes, s)
	}
	return fmt.Sprintf("schemes=%v allow_exact=%d allow_pattern=%d deny_exact=%d deny_pattern=%d default_allow=%v",
		schemes, len(a.allowExact), len(a.allowPattern), len(a.denyExact), len(a.denyPattern), a.defaultAllow)
}

// Preset constructors mirroring the reference's presets module.

// AWSAllowlist permits the common AWS service domain patterns.
func AWSAllowlist() *OutboundAllowlist {
	return NewOutboundAllowlist().
		AllowPattern("*.amazonaws.com").
		AllowPattern("*.aws.amazon.com")
}

// GCPAllowlist permits the common GCP service domain patterns.
func GCPAllowlist() *OutboundAllowlist {
	return NewOutboundAllowlist().
		AllowPattern("*.googleapis.com").
		AllowPattern("*.cloud.google.com")
}

// CDNAllowlist permits common CDN edge domain patterns.
func CDNAllowlist() *OutboundAllowlist {
	return NewOutboundAllowlist().
		AllowPattern("*.cloudfront.net").
		AllowPattern("*.fastly.net").
		AllowPattern("*.akamaized.net").
		AllowPattern("*.cloudflare.com")
}

// CommonAPIsAllowlist permits a handful of widely used first-party
// upstream API domain patterns used in examples and tests.
func CommonAPIsAllowlist() *OutboundAllowlist {
	return NewOutboundAllowlist().
		AllowPattern("*.internal").
		AllowPattern("api.*")
}
