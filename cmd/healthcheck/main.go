package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ericfisherdev/tinkerstudio/internal/config"
)

func main() {
	os.Exit(check(os.Getenv("TINKERSTUDIO_LISTEN_ADDR")))
}

// check queries the health endpoint on loopback. Containers bind 0.0.0.0 but
// the healthcheck runs inside the same container, so loopback is reachable.
func check(listenAddr string) int {
	addr := config.LoopbackAddr(listenAddr)

	client := &http.Client{Timeout: 2 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/api/v1/health", addr), nil)
	if err != nil {
		return 1
	}

	resp, err := client.Do(req)
	if err != nil {
		return 1
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 1
	}

	return 0
}
