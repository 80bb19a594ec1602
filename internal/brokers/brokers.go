// Package brokers normalizes Kafka bootstrap server lists.
package brokers

import (
	"fmt"
	"net"
	"strings"

	"github.com/goware/urlx"
)

// DefaultPort is the MSK listener for IAM authenticated TLS clients.
const DefaultPort = "9098"

// Parse splits each entry on commas, drops blanks, and returns the brokers
// as host:port. A missing port becomes DefaultPort. Entries may carry a
// scheme (kafka://host:9098); it is discarded.
func Parse(entries []string) ([]string, error) {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		for _, b := range strings.Split(entry, ",") {
			b = strings.TrimSpace(b)
			if b == "" {
				continue
			}
			u, err := urlx.ParseWithDefaultScheme(b, "kafka")
			if err != nil {
				return nil, fmt.Errorf("invalid broker %q: %w", b, err)
			}
			if u.Hostname() == "" {
				return nil, fmt.Errorf("invalid broker %q: missing host", b)
			}
			port := u.Port()
			if port == "" {
				port = DefaultPort
			}
			out = append(out, net.JoinHostPort(u.Hostname(), port))
		}
	}
	return out, nil
}
