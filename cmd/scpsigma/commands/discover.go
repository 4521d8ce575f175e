package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/scpsigma/scpsigma-go/pkg/discovery"
)

// HostCollector gathers the hosts announced on the network.
type HostCollector interface {
	Collect(ctx context.Context) ([]*discovery.Host, error)
}

// RunDiscover lists the SSH hosts found by c.
func RunDiscover(ctx context.Context, c HostCollector, w io.Writer) error {
	hosts, err := c.Collect(ctx)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	if len(hosts) == 0 {
		fmt.Fprintln(w, "No SSH hosts found.")
		return nil
	}
	printHosts(w, hosts)
	return nil
}

func printHosts(w io.Writer, hosts []*discovery.Host) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INSTANCE\tADDRESS\tHOSTNAME\tSFTP\tUSER")
	for _, h := range hosts {
		sftp := "no"
		if h.SupportsSFTP() {
			sftp = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			h.Instance, h.Addr(), strings.TrimSuffix(h.HostName, "."), sftp, h.Text["u"])
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d host(s) found.\n", len(hosts))
}
