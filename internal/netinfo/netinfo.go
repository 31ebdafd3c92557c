// Package netinfo enumerates the host's LAN addresses so the operator can
// be shown ready-to-share viewer links.
package netinfo

import (
	"fmt"
	stdnet "net"
	"strings"

	gnet "github.com/shirou/gopsutil/v3/net"
)

// ShareURLs returns http:// links for every usable IPv4 interface address,
// loopback last so the LAN links lead.
func ShareURLs(port uint16) []string {
	ifaces, err := gnet.Interfaces()
	if err != nil {
		return []string{fmt.Sprintf("http://127.0.0.1:%d/", port)}
	}

	var lan, loop []string
	for _, iface := range ifaces {
		up, loopback := false, false
		for _, flag := range iface.Flags {
			switch strings.ToLower(flag) {
			case "up":
				up = true
			case "loopback":
				loopback = true
			}
		}
		if !up {
			continue
		}

		for _, addr := range iface.Addrs {
			ip := parseIPv4(addr.Addr)
			if ip == "" {
				continue
			}
			url := fmt.Sprintf("http://%s:%d/", ip, port)
			if loopback {
				loop = append(loop, url)
			} else {
				lan = append(lan, url)
			}
		}
	}

	out := append(lan, loop...)
	if len(out) == 0 {
		out = append(out, fmt.Sprintf("http://127.0.0.1:%d/", port))
	}
	return out
}

// parseIPv4 extracts a plain IPv4 address from "a.b.c.d" or "a.b.c.d/nn".
func parseIPv4(s string) string {
	if ip, _, err := stdnet.ParseCIDR(s); err == nil {
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
		return ""
	}
	if ip := stdnet.ParseIP(s); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ""
}
