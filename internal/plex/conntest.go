package plex

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

const defaultPlexPort = "32400"

// ConnectionError carries a short user-facing message plus remediation
// steps, shown when the server cannot be reached before a run starts.
type ConnectionError struct {
	Message string
	Steps   []string
}

func (e *ConnectionError) Error() string { return e.Message }

// ConnectionTester probes server reachability before an import, trying
// docker/localhost fallback hosts when the configured one does not answer.
type ConnectionTester struct {
	Timeout time.Duration
}

func NewConnectionTester() *ConnectionTester {
	return &ConnectionTester{Timeout: 10 * time.Second}
}

// Test checks that the configured URL (or a fallback host) accepts TCP
// connections. It returns the working URL, which may differ from the input
// when a fallback answered.
func (t *ConnectionTester) Test(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return "", &ConnectionError{
			Message: fmt.Sprintf("Invalid Plex URL %q.", rawURL),
			Steps:   []string{"Use a URL of the form http://host:32400."},
		}
	}

	host := parsed.Hostname()
	port := parsed.Port()
	if port == "" {
		port = defaultPlexPort
	}

	if t.reachable(host, port) {
		return rawURL, nil
	}

	for _, fallback := range fallbackHosts(host) {
		if t.reachable(fallback, port) {
			rebuilt := *parsed
			rebuilt.Host = net.JoinHostPort(fallback, port)
			return rebuilt.String(), nil
		}
	}

	return "", &ConnectionError{
		Message: fmt.Sprintf("Unable to reach Plex server at %s.", rawURL),
		Steps: []string{
			"Check that the Plex server is running.",
			fmt.Sprintf("Verify the address and port (%s:%s).", host, port),
			"If running in Docker, try host.docker.internal instead of localhost.",
			"Check firewall rules for port " + port + ".",
		},
	}
}

func (t *ConnectionTester) reachable(host, port string) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), t.Timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// fallbackHosts maps container-style hostnames to local equivalents and
// vice versa.
func fallbackHosts(host string) []string {
	switch {
	case host == "localhost" || host == "127.0.0.1":
		return []string{"host.docker.internal"}
	case host == "host.docker.internal":
		return []string{"localhost", "127.0.0.1"}
	case strings.Contains(host, "plex"):
		// docker-compose service names do not resolve outside the network
		return []string{"host.docker.internal", "localhost", "127.0.0.1"}
	default:
		return nil
	}
}
