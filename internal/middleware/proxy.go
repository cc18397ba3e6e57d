package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// DefaultTrustedProxies covers loopback, Docker bridge networks, and private
// LAN ranges. Used when TRUSTED_PROXIES is not configured.
var DefaultTrustedProxies = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"fd00::/8",
}

// TrustedProxies configures Echo so c.RealIP() resolves the storefront
// visitor instead of the reverse proxy. Forwarding headers are honoured only
// when the direct peer falls inside one of the trusted CIDRs; otherwise a
// client could spoof X-Forwarded-For to dodge the public rate limit.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) {
	e.IPExtractor = newProxyIPExtractor(parseCIDRs(trustedCIDRs))
}

// parseCIDRs converts CIDR strings to networks, logging and skipping bad ones.
func parseCIDRs(cidrs []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy CIDR", slog.String("cidr", cidr))
			continue
		}
		nets = append(nets, network)
	}
	return nets
}

// newProxyIPExtractor returns an extractor preferring X-Real-IP, then the
// leftmost X-Forwarded-For entry, for requests arriving from trusted peers.
func newProxyIPExtractor(trusted []*net.IPNet) echo.IPExtractor {
	return func(req *http.Request) string {
		peer := req.RemoteAddr
		if host, _, err := net.SplitHostPort(peer); err == nil {
			peer = host
		}

		if !containsIP(trusted, net.ParseIP(peer)) {
			return peer
		}

		if realIP := strings.TrimSpace(req.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
		if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
			client, _, _ := strings.Cut(xff, ",")
			if client = strings.TrimSpace(client); client != "" {
				return client
			}
		}
		return peer
	}
}

// containsIP reports whether ip falls within any of the networks.
func containsIP(nets []*net.IPNet, ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
