// Package hostinfo inspects the host's network interfaces.
package hostinfo

import (
	"fmt"
	"net"
	"strings"

	"netlens.dev/netlens/internal/core"
)

// Interface describes one capturable network interface.
type Interface struct {
	Name      string   `json:"name"`
	Addresses []string `json:"addresses"`
	Up        bool     `json:"up"`
	Loopback  bool     `json:"loopback"`
}

// virtualPatterns match interface names created by container and VM
// runtimes, which are rarely what an operator wants to capture on.
var virtualPatterns = []string{
	"docker", "virbr", "veth", "br-", "kube", "flannel",
	"cni", "tun", "tap", "vbox", "utun", "awdl",
}

// IsVirtual reports whether the interface name looks runtime-generated.
func IsVirtual(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range virtualPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// List enumerates the host's interfaces, loopback included. Callers that
// want only physical candidates can filter with IsVirtual.
func List() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("hostinfo: list interfaces: %w", err)
	}

	out := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		info := Interface{
			Name:     iface.Name,
			Up:       iface.Flags&net.FlagUp != 0,
			Loopback: iface.Flags&net.FlagLoopback != 0,
		}
		if addrs, err := iface.Addrs(); err == nil {
			for _, addr := range addrs {
				info.Addresses = append(info.Addresses, addr.String())
			}
		}
		out = append(out, info)
	}
	return out, nil
}

// Validate checks that name refers to an existing interface that is up.
func Validate(name string) error {
	ifaces, err := net.Interfaces()
	if err != nil {
		return fmt.Errorf("hostinfo: list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Name == name {
			if iface.Flags&net.FlagUp == 0 {
				return fmt.Errorf("%w: interface %s is down", core.ErrInterfaceUnavailable, name)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: interface %s not found", core.ErrInterfaceUnavailable, name)
}
