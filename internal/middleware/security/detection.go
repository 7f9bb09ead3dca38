// Package security screens incoming requests before they reach the
// dashboard: it resolves the client address behind trusted proxies and
// turns away obvious scanner probes.
package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"

	applog "sgfcp/internal/log"
)

// maxURLLength is the longest request URL accepted.
const maxURLLength = 2048

var (
	probePatterns = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", ".git", ".ssh",
		"eval(", "javascript:", "<script", "union select",
		"etc/passwd", "cmd.exe",
	}
	scannerAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab",
	}
	blockedMethods = map[string]bool{"TRACE": true, "TRACK": true, "DEBUG": true, "CONNECT": true}
)

// Detector handles suspicious request detection
type Detector struct {
	trustedProxies []*net.IPNet
	suspicious     atomic.Int64
	logger         *applog.Logger
	onSuspicious   func()
}

// Option configures a Detector.
type Option func(*Detector)

// WithObserver is called once per rejected request.
func WithObserver(fn func()) Option {
	return func(d *Detector) { d.onSuspicious = fn }
}

// NewDetector trusts loopback and private networks as proxies.
func NewDetector(logger *applog.Logger, opts ...Option) *Detector {
	if logger == nil {
		logger = applog.Discard()
	}
	d := &Detector{
		trustedProxies: []*net.IPNet{
			parseCIDR("127.0.0.0/8"),
			parseCIDR("10.0.0.0/8"),
			parseCIDR("172.16.0.0/12"),
			parseCIDR("192.168.0.0/16"),
			parseCIDR("::1/128"),
		},
		logger: logger.WithComponent(applog.ComponentHTTP),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func parseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

// AddTrustedProxy adds a trusted proxy network
func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, network)
	return nil
}

// Suspicious returns how many requests were rejected.
func (d *Detector) Suspicious() int64 { return d.suspicious.Load() }

// Middleware rewrites RemoteAddr to the real client address and rejects
// probes. Rate limiting downstream keys on the rewritten address.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := d.ClientIP(r); ip != "" {
			r.RemoteAddr = net.JoinHostPort(ip, "0")
		}

		if reason := d.Inspect(r); reason != "" {
			d.suspicious.Add(1)
			if d.onSuspicious != nil {
				d.onSuspicious()
			}
			d.logger.WarnContext(r.Context(), "Suspicious request rejected",
				"reason", reason, applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path,
				applog.FieldClientIP, r.RemoteAddr)
			status := http.StatusNotFound
			if reason == "method" {
				status = http.StatusMethodNotAllowed
			}
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Inspect returns why r looks like an attack, or "" when it does not.
func (d *Detector) Inspect(r *http.Request) string {
	if blockedMethods[r.Method] {
		return "method"
	}
	if len(r.URL.String()) > maxURLLength {
		return "url_length"
	}

	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)
	for _, pattern := range probePatterns {
		if strings.Contains(path, pattern) || strings.Contains(query, pattern) {
			return "pattern"
		}
	}

	userAgent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, agent := range scannerAgents {
		if strings.Contains(userAgent, agent) {
			return "user_agent"
		}
	}

	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5 {
		return "forwarded_chain"
	}
	return ""
}

// ClientIP extracts the real client IP, honouring forwarded headers only
// when the direct peer is a trusted proxy.
func (d *Detector) ClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsedDirectIP := net.ParseIP(directIP)
	if parsedDirectIP == nil || !d.isTrustedProxy(parsedDirectIP) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" && net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}

func (d *Detector) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
