package commands

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/scpsigma/scpsigma-go/pkg/discovery"
)

type stubCollector struct {
	hosts []*discovery.Host
	err   error
}

func (s stubCollector) Collect(context.Context) ([]*discovery.Host, error) {
	return s.hosts, s.err
}

func TestDiscoverListsHosts(t *testing.T) {
	hosts := []*discovery.Host{
		{
			Instance:  "line-3-gateway",
			HostName:  "gw3.local.",
			Port:      2222,
			Addresses: []string{"fe80::1", "192.168.10.3"},
			Services:  []string{discovery.ServiceTypeSSH, discovery.ServiceTypeSFTP},
			Text:      map[string]string{"u": "ops"},
		},
		{
			Instance:  "historian",
			HostName:  "historian.local.",
			Addresses: []string{"192.168.10.9"},
			Services:  []string{discovery.ServiceTypeSSH},
		},
	}

	var buf bytes.Buffer
	if err := RunDiscover(context.Background(), stubCollector{hosts: hosts}, &buf); err != nil {
		t.Fatalf("RunDiscover failed: %v", err)
	}
	output := buf.String()

	lines := strings.Split(output, "\n")
	if !strings.HasPrefix(lines[0], "INSTANCE") {
		t.Errorf("expected header, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "line-3-gateway") || !strings.Contains(lines[1], "192.168.10.3:2222") ||
		!strings.Contains(lines[1], "gw3.local") || !strings.Contains(lines[1], "yes") || !strings.Contains(lines[1], "ops") {
		t.Errorf("unexpected first row: %q", lines[1])
	}
	if !strings.Contains(lines[2], "192.168.10.9:22") || !strings.Contains(lines[2], "no") {
		t.Errorf("unexpected second row: %q", lines[2])
	}
	if !strings.Contains(output, "2 host(s) found.") {
		t.Errorf("missing count in output:\n%s", output)
	}
}

func TestDiscoverNoHosts(t *testing.T) {
	var buf bytes.Buffer
	if err := RunDiscover(context.Background(), stubCollector{}, &buf); err != nil {
		t.Fatalf("RunDiscover failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No SSH hosts found.") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestDiscoverError(t *testing.T) {
	err := RunDiscover(context.Background(), stubCollector{err: errors.New("no multicast interface")}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "discovery failed") {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("warn", &buf)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "host", "gw3")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "msg=shown host=gw3") {
		t.Errorf("unexpected log output: %q", buf.String())
	}

	if logger, err := NewLogger("off", &buf); err != nil || logger != nil {
		t.Errorf("off: got %v, %v", logger, err)
	}
	if _, err := NewLogger("loud", &buf); err == nil {
		t.Error("expected error for unknown level")
	}
}
