package utils

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"
)

var defaultPorts = map[string]string{
	"https": "443",
	"http":  "80",
	"redis": "6379",
}

// PingService dials the host of serviceURL over TCP.
func PingService(ctx context.Context, serviceURL string, timeout time.Duration) error {
	parsedURL, err := url.Parse(serviceURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Hostname() == "" {
		return fmt.Errorf("invalid URL %q: no host", serviceURL)
	}

	port := parsedURL.Port()
	if port == "" {
		if port = defaultPorts[parsedURL.Scheme]; port == "" {
			port = "80"
		}
	}
	address := net.JoinHostPort(parsedURL.Hostname(), port)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	return conn.Close()
}

// PingAuthorizer checks if the Authorizer service is reachable
func PingAuthorizer(authzURL string) error {
	return PingService(context.Background(), authzURL, 1500*time.Millisecond)
}
