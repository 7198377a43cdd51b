package geoip

import (
	"net"
	"strings"
)

// MaskIP reduces an address to its /24 (IPv4) or /64 (IPv6) prefix so it can
// be logged. Addresses with a port are accepted. Anything that does not parse
// as an IP address yields "".
func MaskIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	ip := net.ParseIP(strings.Trim(addr, "[]"))
	if ip == nil {
		return ""
	}

	if ipv4 := ip.To4(); ipv4 != nil {
		return ipv4.Mask(net.CIDRMask(24, 32)).String() + "/24"
	}
	return ip.Mask(net.CIDRMask(64, 128)).String() + "/64"
}
