package handler

import (
	"context"
	"sync"
	"time"
)

const probeTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe is one named dependency checked by readiness and gRPC health.
type Probe struct {
	Name   string
	Pinger Pinger
}

// checkAll pings every probe concurrently and returns each outcome by name.
func checkAll(ctx context.Context, probes []Probe) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]error, len(probes))
	)
	for _, p := range probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			err := p.Pinger.Ping(ctx)
			mu.Lock()
			results[p.Name] = err
			mu.Unlock()
		}(p)
	}
	wg.Wait()
	return results
}
