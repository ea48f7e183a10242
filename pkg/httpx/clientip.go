package httpx

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

const CtxKeyClientIP ctxKey = "client_ip"

// TrustedProxies lists the networks whose forwarding headers are believed.
// The zero value trusts nobody, so only the direct peer address is used.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies reads a comma separated list of CIDRs or bare
// addresses, e.g. "10.0.0.0/8, 127.0.0.1".
func ParseTrustedProxies(s string) (TrustedProxies, error) {
	var out TrustedProxies
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "/") {
			p, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", part, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(part)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", part, err)
		}
		addr = addr.Unmap().WithZone("")
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func (tp TrustedProxies) contains(addr netip.Addr) bool {
	for _, p := range tp {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP resolves the caller's address. Forwarding headers are consulted
// only when the direct peer is a trusted proxy. X-Forwarded-For is walked
// from the right, skipping trusted hops; the first untrusted hop is the
// client. Any hop that is not a literal IP ends the walk and the peer is
// used instead.
func (tp TrustedProxies) ClientIP(r *http.Request) string {
	peer := peerAddr(r)
	addr, ok := parseIP(peer)
	if !ok {
		return peer
	}
	if !tp.contains(addr) {
		return addr.String()
	}

	if hops := forwardedHops(r); len(hops) > 0 {
		client := addr
		for i := len(hops) - 1; i >= 0; i-- {
			hop, ok := parseIP(hops[i])
			if !ok {
				return addr.String()
			}
			client = hop
			if !tp.contains(hop) {
				break
			}
		}
		return client.String()
	}

	if xri, ok := parseIP(r.Header.Get("X-Real-IP")); ok {
		return xri.String()
	}
	return addr.String()
}

// ClientIPMiddleware resolves the client address once and stores it for
// IPKeyExtractor and handlers further down the chain.
func ClientIPMiddleware(tp TrustedProxies) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), CtxKeyClientIP, tp.ClientIP(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIPFromContext returns the address stored by ClientIPMiddleware.
func ClientIPFromContext(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(CtxKeyClientIP).(string)
	return ip, ok && ip != ""
}

func peerAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func forwardedHops(r *http.Request) []string {
	var hops []string
	for _, v := range r.Header.Values("X-Forwarded-For") {
		for _, hop := range strings.Split(v, ",") {
			hops = append(hops, strings.TrimSpace(hop))
		}
	}
	return hops
}

func parseIP(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if net.ParseIP(s) == nil {
		return netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
