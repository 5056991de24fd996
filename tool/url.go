package tool

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// WidgetAPIPrefix is the route group of the control API.
const WidgetAPIPrefix = "/api/widget/v1/widgets"

// BuildControlURL joins base, the control API prefix, the control id and an optional action.
func BuildControlURL(base, id, action string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %v", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base URL must be absolute: %q", base)
	}
	u.Path += WidgetAPIPrefix + "/" + id
	if action != "" {
		u.Path += "/" + action
	}
	return u.String(), nil
}

// ReachableHost replaces a loopback hostname in hostport with a LAN address of this machine,
// so that another device can open the URL. Other hosts are returned unchanged.
func ReachableHost(hostport string) string {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host, port = hostport, ""
	}
	if host != "localhost" {
		if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
			return hostport
		}
	}
	lan := PreferredLocalIPv4()
	if lan == "" {
		return hostport
	}
	if port == "" {
		return lan
	}
	return net.JoinHostPort(lan, port)
}
