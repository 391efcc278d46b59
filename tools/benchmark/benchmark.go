// Package main provides a load generator for the /classify endpoint
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

type stats struct {
	classified   atomic.Int64 // 200
	rejected     atomic.Int64 // 400 and 422, expected for random sides
	errors       atomic.Int64
	totalLatency atomic.Int64 // in microseconds
	minLatency   atomic.Int64
	maxLatency   atomic.Int64
}

func (s *stats) observe(latency int64) {
	s.totalLatency.Add(latency)
	for {
		old := s.minLatency.Load()
		if latency >= old || s.minLatency.CompareAndSwap(old, latency) {
			break
		}
	}
	for {
		old := s.maxLatency.Load()
		if latency <= old || s.maxLatency.CompareAndSwap(old, latency) {
			break
		}
	}
}

// randomSides mixes valid triangles with degenerate and invalid triples
func randomSides(r *rand.Rand) url.Values {
	v := url.Values{}
	for _, key := range []string{"a", "b", "c"} {
		side := float64(r.IntN(10) + 1)
		if r.IntN(20) == 0 {
			side = -side
		}
		v.Set(key, strconv.FormatFloat(side, 'g', -1, 64))
	}
	return v
}

func main() {
	target := flag.String("url", "http://localhost:8080/classify", "Target URL")
	duration := flag.Duration("duration", 10*time.Second, "Test duration")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	insecure := flag.Bool("insecure", false, "Skip TLS certificate verification")
	flag.Parse()

	fmt.Printf("Benchmarking %s\n", *target)
	fmt.Printf("Duration: %v, Concurrency: %d\n\n", *duration, *concurrency)

	tr := &http.Transport{
		MaxIdleConns:        *concurrency * 2,
		MaxIdleConnsPerHost: *concurrency * 2,
		IdleConnTimeout:     90 * time.Second,
	}
	if *insecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	client := &http.Client{
		Transport: tr,
		Timeout:   5 * time.Second,
	}

	var st stats
	st.minLatency.Store(1<<63 - 1)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < *concurrency; i++ {
		seed := uint64(i)
		g.Go(func() error {
			r := rand.New(rand.NewPCG(seed, uint64(time.Now().UnixNano())))
			for ctx.Err() == nil {
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, *target+"?"+randomSides(r).Encode(), nil)
				if err != nil {
					return err
				}

				start := time.Now()
				resp, err := client.Do(req)
				latency := time.Since(start).Microseconds()
				if err != nil {
					if !errors.Is(err, context.DeadlineExceeded) {
						st.errors.Add(1)
					}
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()

				switch resp.StatusCode {
				case http.StatusOK:
					st.classified.Add(1)
					st.observe(latency)
				case http.StatusBadRequest, http.StatusUnprocessableEntity:
					st.rejected.Add(1)
					st.observe(latency)
				default:
					st.errors.Add(1)
				}
			}
			return nil
		})
	}

	// Progress ticker
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	go func() {
		elapsed := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				elapsed++
				reqs := st.classified.Load() + st.rejected.Load()
				fmt.Printf("[%ds] Requests: %d, Errors: %d, RPS: %.0f\n",
					elapsed, reqs, st.errors.Load(), float64(reqs)/float64(elapsed))
			}
		}
	}()

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "benchmark: %v\n", err)
		os.Exit(1)
	}

	classified := st.classified.Load()
	rejected := st.rejected.Load()
	errs := st.errors.Load()
	reqs := classified + rejected

	avgLatency := float64(0)
	minLat := int64(0)
	if reqs > 0 {
		avgLatency = float64(st.totalLatency.Load()) / float64(reqs)
		minLat = st.minLatency.Load()
	}
	maxLat := st.maxLatency.Load()

	rps := float64(reqs) / duration.Seconds()

	fmt.Println("\n========== RESULTS ==========")
	fmt.Printf("Total requests:  %d\n", reqs)
	fmt.Printf("Classified:      %d\n", classified)
	fmt.Printf("Rejected:        %d\n", rejected)
	fmt.Printf("Total errors:    %d\n", errs)
	fmt.Printf("Duration:        %v\n", *duration)
	fmt.Printf("Concurrency:     %d\n", *concurrency)
	fmt.Println()
	fmt.Printf("RPS:             %.2f\n", rps)
	fmt.Printf("RPM:             %.0f\n", rps*60)
	fmt.Println()
	fmt.Printf("Latency avg:     %.2f µs (%.3f ms)\n", avgLatency, avgLatency/1000)
	fmt.Printf("Latency min:     %d µs (%.3f ms)\n", minLat, float64(minLat)/1000)
	fmt.Printf("Latency max:     %d µs (%.3f ms)\n", maxLat, float64(maxLat)/1000)

	if errs > 0 {
		os.Exit(1)
	}
}
