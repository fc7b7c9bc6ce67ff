package cli

import (
	"fmt"
	"net"
	"net/url"

	"github.com/jackpal/gateway"
)

// lanLink swaps a loopback host in link for this machine's LAN address, so a
// phone scanning the QR code reaches the same server. Other hosts are kept.
func lanLink(link string, discover func() (net.IP, error)) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid link: %w", err)
	}
	host := u.Hostname()
	if host != "localhost" {
		if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
			return link, nil
		}
	}

	ip, err := discover()
	if err != nil {
		return "", err
	}
	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(ip.String(), port)
	} else {
		u.Host = ip.String()
	}
	return u.String(), nil
}

// localLANAddress returns the address of the interface that shares a subnet
// with the default gateway.
func localLANAddress() (net.IP, error) {
	gw, err := gateway.DiscoverGateway()
	if err != nil {
		return nil, fmt.Errorf("failed to discover gateway: %w", err)
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list network interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if ok && ipNet.Contains(gw) {
				return ipNet.IP, nil
			}
		}
	}
	return nil, fmt.Errorf("no interface shares a subnet with gateway %s", gw)
}
