// Package discovery finds saned hosts on the local network via mDNS/
// DNS-SD, so a caller isn't required to hand-type an address (spec.md §6
// describes only the connect-by-address surface; this is an additive
// convenience, not a replacement for it).
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/finch-labs/gosane/internal/sanerr"
)

// serviceType is the Avahi/Bonjour service `saned` advertises when built
// with mDNS support.
const serviceType = "_sane-port._tcp"

// Candidate is one discovered saned host, not yet connected to.
type Candidate struct {
	Address     string // host:port, ready for client.Connect/session.Connect
	Instance    string
	Description string // joined TXT records, for display
}

// defaultTimeout bounds one browse pass; mDNS discovery has no natural
// end, so a caller must always cap how long to wait.
const defaultTimeout = 3 * time.Second

// Find browses for saned hosts for up to timeout (or defaultTimeout if
// timeout <= 0) and returns every candidate seen.
func Find(ctx context.Context, timeout time.Duration) ([]Candidate, error) {
	const op = "discovery.Find"

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, sanerr.New(sanerr.KindIO, op, fmt.Errorf("new resolver: %w", err))
	}

	entries := make(chan *zeroconf.ServiceEntry, 16)
	var candidates []Candidate
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			c := toCandidate(entry)
			slog.Debug("discovery: found saned host", "address", c.Address, "instance", c.Instance)
			candidates = append(candidates, c)
		}
	}()

	browseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := resolver.Browse(browseCtx, serviceType, "local.", entries); err != nil {
		return nil, sanerr.New(sanerr.KindIO, op, fmt.Errorf("browse: %w", err))
	}

	<-browseCtx.Done()
	<-done
	return candidates, nil
}

func toCandidate(entry *zeroconf.ServiceEntry) Candidate {
	host := entry.HostName
	if len(entry.AddrIPv4) > 0 {
		host = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		host = entry.AddrIPv6[0].String()
	}
	return Candidate{
		Address:     net.JoinHostPort(host, fmt.Sprintf("%d", entry.Port)),
		Instance:    entry.Instance,
		Description: strings.Join(entry.Text, "; "),
	}
}
