// Command healthcheck probes the JSON API of a running "art serve" and exits
// non-zero when it is unhealthy. It is meant for container health checks.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/shilph/art/internal/config"
)

const fallbackAddr = "127.0.0.1:8080"

func main() {
	os.Exit(check())
}

func check() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return probe(fmt.Sprintf("http://%s/api/v1/health", normalizeAddr(cfg.ListenAddr)))
}

func probe(url string) int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 1
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 1
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 1
	}
	return 0
}

// normalizeAddr points the probe at loopback when the server binds every
// interface.
func normalizeAddr(raw string) string {
	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return fallbackAddr
	}

	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
