package discovery

import (
	"errors"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"
)

// mDNS service types.
const (
	// ServiceTypeSSH is the DNS-SD service type for SSH servers.
	ServiceTypeSSH = "_ssh._tcp"

	// ServiceTypeSFTP is the DNS-SD service type for SFTP over SSH.
	ServiceTypeSFTP = "_sftp-ssh._tcp"

	// Domain is the mDNS domain.
	Domain = "local"
)

// DefaultBrowseTimeout bounds Collect when the context has no deadline.
const DefaultBrowseTimeout = 5 * time.Second

// ErrNotFound is returned when no matching host was seen.
var ErrNotFound = errors.New("discovery: host not found")

// Host is an SSH server seen on the network.
type Host struct {
	// Instance is the DNS-SD instance name.
	Instance string `json:"instance"`

	// HostName is the advertised target host, usually "<name>.local.".
	HostName string `json:"host_name"`

	// Port is the advertised SSH port.
	Port int `json:"port"`

	// Addresses are the IP addresses seen for the instance.
	Addresses []string `json:"addresses"`

	// Services lists the service types the instance was seen under.
	Services []string `json:"services"`

	// Text holds TXT record key/value pairs.
	Text map[string]string `json:"text,omitempty"`
}

// Addr returns a dialable host:port, preferring an IPv4 address.
func (h *Host) Addr() string {
	host := strings.TrimSuffix(h.HostName, ".")
	for _, a := range h.Addresses {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			host = a
			break
		}
	}
	if host == "" && len(h.Addresses) > 0 {
		host = h.Addresses[0]
	}
	port := h.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// SupportsSFTP reports whether the host announced SFTP.
func (h *Host) SupportsSFTP() bool {
	for _, s := range h.Services {
		if s == ServiceTypeSFTP {
			return true
		}
	}
	return false
}

func (h *Host) clone() *Host {
	c := *h
	c.Addresses = append([]string(nil), h.Addresses...)
	c.Services = append([]string(nil), h.Services...)
	if h.Text != nil {
		c.Text = make(map[string]string, len(h.Text))
		for k, v := range h.Text {
			c.Text[k] = v
		}
	}
	return &c
}

// record is one announcement or withdrawal, independent of the mDNS library.
type record struct {
	service   string
	instance  string
	hostName  string
	port      int
	addresses []string
	text      []string
}

// parseTXT turns "key=value" strings into a map. A bare key maps to "".
func parseTXT(txt []string) map[string]string {
	if len(txt) == 0 {
		return nil
	}
	m := make(map[string]string, len(txt))
	for _, s := range txt {
		if s == "" {
			continue
		}
		k, v, _ := strings.Cut(s, "=")
		m[strings.ToLower(k)] = v
	}
	return m
}

// SortHosts orders hosts by instance name.
func SortHosts(hosts []*Host) {
	sort.Slice(hosts, func(i, j int) bool { return hosts[i].Instance < hosts[j].Instance })
}
