package discovery

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout bounds Collect and Find when the context has no deadline.
	// Default: 5 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// ServiceTypes are the service types to browse.
	// Default: ServiceTypeSSH and ServiceTypeSFTP.
	ServiceTypes []string

	// Logger is the optional logger for browse errors.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: DefaultBrowseTimeout,
		ServiceTypes:  []string{ServiceTypeSSH, ServiceTypeSFTP},
	}
}

// browseFunc browses one service type, sending announcements to found and
// withdrawals to lost until ctx is done.
type browseFunc func(ctx context.Context, service string, found, lost chan<- record) error

// MDNSBrowser browses for SSH hosts using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig
	browse browseFunc

	mu      sync.Mutex
	stopped bool
	cancels []context.CancelFunc
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	d := DefaultBrowserConfig()
	if config.BrowseTimeout <= 0 {
		config.BrowseTimeout = d.BrowseTimeout
	}
	if len(config.ServiceTypes) == 0 {
		config.ServiceTypes = d.ServiceTypes
	}
	b := &MDNSBrowser{config: config}
	b.browse = b.zeroconfBrowse
	return b
}

// Browse searches for hosts. A host is sent when first seen and again
// whenever its addresses or services change; every value is a snapshot.
// The channel is closed when ctx is done or Stop is called.
func (b *MDNSBrowser) Browse(ctx context.Context) (<-chan *Host, error) {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil, context.Canceled
	}
	ctx, cancel := context.WithCancel(ctx)
	b.cancels = append(b.cancels, cancel)
	b.mu.Unlock()

	out := make(chan *Host)
	found := make(chan record)
	lost := make(chan record)

	var wg sync.WaitGroup
	for _, service := range b.config.ServiceTypes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.browse(ctx, service, found, lost); err != nil && ctx.Err() == nil {
				b.debugLog("mdns browse failed", "service", service, "error", err)
			}
		}()
	}

	// Process entries with aggregation
	go func() {
		defer close(out)
		defer cancel()

		agg := newAggregator()
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		for {
			select {
			case rec := <-found:
				h, changed := agg.add(rec)
				if !changed {
					continue
				}
				select {
				case out <- h:
				case <-ctx.Done():
					return
				}

			case rec := <-lost:
				if agg.remove(rec) {
					b.debugLog("host withdrawn", "instance", rec.instance)
				}

			case <-done:
				return

			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Collect browses until ctx is done or the configured timeout elapses and
// returns the latest snapshot of every host seen, sorted by instance name.
func (b *MDNSBrowser) Collect(ctx context.Context) ([]*Host, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.config.BrowseTimeout)
		defer cancel()
	}

	results, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]*Host)
	for h := range results {
		latest[h.Instance] = h
	}

	hosts := make([]*Host, 0, len(latest))
	for _, h := range latest {
		hosts = append(hosts, h)
	}
	SortHosts(hosts)
	return hosts, nil
}

// Find browses until a host with the given instance name appears. Without a
// deadline on ctx the search gives up after the configured timeout with
// ErrNotFound. If ctx itself ends first, its error is returned.
func (b *MDNSBrowser) Find(ctx context.Context, instance string) (*Host, error) {
	var (
		browseCtx context.Context
		cancel    context.CancelFunc
	)
	if _, ok := ctx.Deadline(); ok {
		browseCtx, cancel = context.WithCancel(ctx)
	} else {
		browseCtx, cancel = context.WithTimeout(ctx, b.config.BrowseTimeout)
	}
	defer cancel()

	results, err := b.Browse(browseCtx)
	if err != nil {
		return nil, err
	}
	for h := range results {
		if h.Instance == instance {
			return h, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNotFound
}

// Stop stops all active browsing operations.
func (b *MDNSBrowser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopped = true
	for _, cancel := range b.cancels {
		cancel()
	}
	b.cancels = nil
}

func (b *MDNSBrowser) debugLog(msg string, args ...any) {
	if b.config.Logger != nil {
		b.config.Logger.Debug(msg, args...)
	}
}

// zeroconfBrowse is the browseFunc backed by zeroconf.
func (b *MDNSBrowser) zeroconfBrowse(ctx context.Context, service string, found, lost chan<- record) error {
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				select {
				case found <- entryToRecord(service, entry):
				case <-ctx.Done():
					return
				}
			case entry, ok := <-removed:
				if !ok {
					removed = nil
					continue
				}
				select {
				case lost <- entryToRecord(service, entry):
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	err := zeroconf.Browse(ctx, service, Domain, entries, removed, b.browserOptions()...)
	if err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// browserOptions returns zeroconf client options based on config.
func (b *MDNSBrowser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption

	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}

	return opts
}

// entryToRecord converts a zeroconf entry.
func entryToRecord(service string, entry *zeroconf.ServiceEntry) record {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return record{
		service:   service,
		instance:  entry.Instance,
		hostName:  entry.HostName,
		port:      entry.Port,
		addresses: addrs,
		text:      entry.Text,
	}
}
