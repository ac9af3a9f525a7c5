// Booking-race simulator: fires concurrent create requests at the same
// resource slot and reports how many won, how many were rejected as
// conflicts, and how many errored. With the advisory lock in place exactly
// one create per overlapping slot should win.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "api-server base URL")
	tenant := flag.String("tenant", "tenant-demo", "tenant id")
	procedure := flag.String("procedure", "", "procedure id (required)")
	workers := flag.Int("workers", 20, "concurrent booking attempts")
	date := flag.String("date", "", "slot start, RFC 3339 (default: tomorrow 10:00)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if *procedure == "" {
		log.Fatal("-procedure is required")
	}
	if _, err := uuid.Parse(*procedure); err != nil {
		log.Fatalf("invalid procedure id: %v", err)
	}

	slot := *date
	if slot == "" {
		tomorrow := time.Now().AddDate(0, 0, 1)
		slot = time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 10, 0, 0, 0, time.Local).Format(time.RFC3339)
	}

	log.Printf("firing %d concurrent creates at slot %s", *workers, slot)

	var created, conflicts, errs int64
	client := &http.Client{Timeout: 10 * time.Second}

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			body, _ := json.Marshal(map[string]any{
				"patient_id":     uuid.NewString(),
				"procedure_id":   *procedure,
				"scheduled_date": slot,
				"location":       "moema",
			})

			req, err := http.NewRequest(http.MethodPost, *baseURL+"/appointments", bytes.NewReader(body))
			if err != nil {
				atomic.AddInt64(&errs, 1)
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Tenant-ID", *tenant)

			resp, err := client.Do(req)
			if err != nil {
				atomic.AddInt64(&errs, 1)
				return
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)

			switch resp.StatusCode {
			case http.StatusCreated:
				atomic.AddInt64(&created, 1)
			case http.StatusConflict:
				atomic.AddInt64(&conflicts, 1)
			default:
				atomic.AddInt64(&errs, 1)
			}
		}()
	}
	wg.Wait()

	fmt.Printf("created=%d conflicts=%d errors=%d\n", created, conflicts, errs)
	if created > 1 {
		fmt.Println("WARNING: more than one create won the same slot")
	}
}
