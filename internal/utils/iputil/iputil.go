// Package iputil normalizes client addresses found in proxy log lines.
// Package iputil 规范化代理日志行中的客户端地址。
package iputil

import (
	"net/netip"
	"strings"
)

// ClientIP normalizes a client token such as "1.2.3.4", "1.2.3.4:5678",
// "[2001:db8::1]:443" or "1.2.3.4," into the canonical address string.
// IPv4-mapped IPv6 addresses are unmapped.
// ClientIP 将客户端标记规范化为标准地址字符串。IPv4 映射的 IPv6 地址会被还原。
func ClientIP(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimRight(s, ",;")
	if s == "" || s == "-" {
		return "", false
	}

	// [ipv6]:port or [ipv6]
	// [ipv6]:port 或 [ipv6]
	if strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end <= 1 {
			return "", false
		}
		s = s[1:end]
	} else if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap().String(), true
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}
