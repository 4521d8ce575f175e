package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// scriptedBrowse replays fixed announcements per service type, then returns.
func scriptedBrowse(found, lost map[string][]record) browseFunc {
	return func(ctx context.Context, service string, f, l chan<- record) error {
		for _, rec := range found[service] {
			rec.service = service
			select {
			case f <- rec:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		for _, rec := range lost[service] {
			rec.service = service
			select {
			case l <- rec:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}
}

func TestCollectAggregatesAcrossServicesAndInterfaces(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewMDNSBrowser(BrowserConfig{})
	b.browse = scriptedBrowse(map[string][]record{
		ServiceTypeSSH: {
			{instance: "plant-gw", hostName: "plant-gw.local.", port: 22, addresses: []string{"192.168.1.10"}, text: []string{"Vendor=acme"}},
			{instance: "plant-gw", hostName: "plant-gw.local.", port: 22, addresses: []string{"fe80::1"}},
			{instance: "historian", hostName: "historian.local.", port: 2222, addresses: []string{"192.168.1.20"}},
		},
		ServiceTypeSFTP: {
			{instance: "plant-gw", hostName: "plant-gw.local.", port: 22, addresses: []string{"192.168.1.10"}},
		},
	}, nil)

	hosts, err := b.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, hosts, 2)

	assert.Equal(t, "historian", hosts[0].Instance)
	assert.Equal(t, "192.168.1.20:2222", hosts[0].Addr())
	assert.False(t, hosts[0].SupportsSFTP())

	gw := hosts[1]
	assert.Equal(t, "plant-gw", gw.Instance)
	assert.ElementsMatch(t, []string{"192.168.1.10", "fe80::1"}, gw.Addresses)
	assert.ElementsMatch(t, []string{ServiceTypeSSH, ServiceTypeSFTP}, gw.Services)
	assert.True(t, gw.SupportsSFTP())
	assert.Equal(t, "acme", gw.Text["vendor"])
}

func TestBrowseStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewMDNSBrowser(BrowserConfig{ServiceTypes: []string{ServiceTypeSSH}})
	b.browse = func(ctx context.Context, _ string, _, _ chan<- record) error {
		<-ctx.Done()
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	results, err := b.Browse(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-results:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("results channel not closed after cancel")
	}
}

func TestStopEndsBrowsing(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewMDNSBrowser(BrowserConfig{ServiceTypes: []string{ServiceTypeSSH}})
	b.browse = func(ctx context.Context, _ string, _, _ chan<- record) error {
		<-ctx.Done()
		return nil
	}

	results, err := b.Browse(context.Background())
	require.NoError(t, err)
	b.Stop()

	for range results {
	}

	_, err = b.Browse(context.Background())
	assert.Error(t, err)
}

func TestFind(t *testing.T) {
	b := NewMDNSBrowser(BrowserConfig{ServiceTypes: []string{ServiceTypeSSH}})
	b.browse = scriptedBrowse(map[string][]record{
		ServiceTypeSSH: {
			{instance: "a", addresses: []string{"10.0.0.1"}},
			{instance: "b", addresses: []string{"10.0.0.2"}},
		},
	}, nil)

	h, err := b.Find(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2:22", h.Addr())

	_, err = b.Find(context.Background(), "zzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func blockingBrowse(ctx context.Context, _ string, _, _ chan<- record) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestFindGivesUpAfterBrowseTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewMDNSBrowser(BrowserConfig{ServiceTypes: []string{ServiceTypeSSH}, BrowseTimeout: 50 * time.Millisecond})
	b.browse = blockingBrowse

	start := time.Now()
	_, err := b.Find(context.Background(), "plant-gw")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFindReturnsCallerContextError(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewMDNSBrowser(BrowserConfig{ServiceTypes: []string{ServiceTypeSSH}, BrowseTimeout: time.Minute})
	b.browse = blockingBrowse

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	_, err := b.Find(ctx, "plant-gw")
	assert.ErrorIs(t, err, context.Canceled)

	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = b.Find(ctx, "plant-gw")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAggregatorRemove(t *testing.T) {
	agg := newAggregator()
	_, isNew := agg.add(record{service: ServiceTypeSSH, instance: "gw", addresses: []string{"10.0.0.1", "10.0.0.2"}})
	require.True(t, isNew)

	// Same announcement again is not a change.
	_, changed := agg.add(record{service: ServiceTypeSSH, instance: "gw", addresses: []string{"10.0.0.1"}})
	assert.False(t, changed)

	assert.False(t, agg.remove(record{instance: "gw", addresses: []string{"10.0.0.1"}}))
	require.Len(t, agg.snapshot(), 1)
	assert.Equal(t, []string{"10.0.0.2"}, agg.snapshot()[0].Addresses)

	assert.True(t, agg.remove(record{instance: "gw", addresses: []string{"10.0.0.2"}}))
	assert.Empty(t, agg.snapshot())
	assert.False(t, agg.remove(record{instance: "unknown"}))
}

func TestAggregatorSnapshotsAreCopies(t *testing.T) {
	agg := newAggregator()
	h, _ := agg.add(record{service: ServiceTypeSSH, instance: "gw", addresses: []string{"10.0.0.1"}})
	h.Addresses[0] = "mutated"

	assert.Equal(t, "10.0.0.1", agg.snapshot()[0].Addresses[0])
}

func TestHostAddr(t *testing.T) {
	tests := []struct {
		name string
		host Host
		want string
	}{
		{"prefers ipv4", Host{HostName: "gw.local.", Port: 22, Addresses: []string{"fe80::1", "10.0.0.1"}}, "10.0.0.1:22"},
		{"falls back to hostname", Host{HostName: "gw.local.", Port: 2222, Addresses: []string{"fe80::1"}}, "gw.local:2222"},
		{"ipv6 only", Host{Addresses: []string{"fe80::1"}}, "[fe80::1]:22"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.host.Addr())
		})
	}
}

func TestParseTXT(t *testing.T) {
	assert.Nil(t, parseTXT(nil))
	assert.Equal(t, map[string]string{"path": "/srv", "ro": ""}, parseTXT([]string{"Path=/srv", "ro", ""}))
}
