package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wy-vetapp/clinic-booking/internal/db"
)

// simulate drives concurrent booking traffic at a running api-server and
// reports how the availability/booking engine behaved under contention:
// how many creates succeeded, how many were rejected as conflicts, and how
// fast the cached read paths answered.

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	PostgresDSN  string
}

type slotTarget struct {
	ClinicID string
	SlotTime string
}

type DataPool struct {
	Users []string
	Pets  []string
	Slots []slotTarget
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	NotFound  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, status int) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case status >= 200 && status < 300:
		atomic.AddInt64(&om.Success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	case status == http.StatusNotFound:
		atomic.AddInt64(&om.NotFound, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.latencies))
	copy(latencies, om.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]
	return avg, p50, p95
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_URL", "http://127.0.0.1:8080"),
		Duration:     getDurationEnv("SIM_DURATION", 30*time.Second),
		Workers:      getIntEnv("SIM_WORKERS", 20),
		BookingRatio: getFloatEnv("SIM_BOOKING_RATIO", 0.3),
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required to load simulation targets")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}

	data, err := loadDataPool(context.Background(), pool)
	pool.Close()
	if err != nil {
		log.Fatalf("load simulation targets: %v", err)
	}
	if len(data.Users) == 0 || len(data.Slots) == 0 {
		log.Fatal("no users or slots found, run cmd/seed first")
	}

	log.Printf("simulating against %s: workers=%d duration=%s targets=%d slots",
		cfg.APIBaseURL, cfg.Workers, cfg.Duration, len(data.Slots))

	reads := &OperationMetrics{}
	bookings := &OperationMetrics{}
	client := &http.Client{Timeout: 5 * time.Second}

	deadline := time.Now().Add(cfg.Duration)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) {
				if rand.Float64() < cfg.BookingRatio {
					runBooking(client, cfg.APIBaseURL, data, bookings)
				} else {
					runRead(client, cfg.APIBaseURL, data, reads)
				}
			}
		}()
	}
	wg.Wait()

	report("reads", reads)
	report("bookings", bookings)
}

func runRead(client *http.Client, base string, data *DataPool, m *OperationMetrics) {
	target := data.Slots[rand.Intn(len(data.Slots))]

	var url string
	if rand.Intn(2) == 0 {
		url = fmt.Sprintf("%s/available/clinics?time=%s", base, target.SlotTime)
	} else {
		url = fmt.Sprintf("%s/available/can-reserve?time=%s&clinic_id=%s", base, target.SlotTime, target.ClinicID)
	}

	start := time.Now()
	resp, err := client.Get(url)
	if err != nil {
		m.Record(time.Since(start), 0)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	m.Record(time.Since(start), resp.StatusCode)
}

func runBooking(client *http.Client, base string, data *DataPool, m *OperationMetrics) {
	// Everyone fights over a small prefix of the slot list so conflicts
	// actually happen.
	hot := max(len(data.Slots)/20, 1)
	target := data.Slots[rand.Intn(hot)]
	idx := rand.Intn(len(data.Users))

	body, _ := json.Marshal(map[string]string{
		"clinic_id": target.ClinicID,
		"time":      target.SlotTime,
		"pet_id":    data.Pets[idx],
		"symptoms":  "simulated visit",
	})

	url := fmt.Sprintf("%s/reservations/%s", base, data.Users[idx])
	start := time.Now()
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		m.Record(time.Since(start), 0)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	m.Record(time.Since(start), resp.StatusCode)
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool) (*DataPool, error) {
	data := &DataPool{}

	rows, err := pool.Query(ctx, `SELECT id FROM users ORDER BY id LIMIT 500`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		data.Users = append(data.Users, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = pool.Query(ctx, `SELECT p.id FROM pets p JOIN users u ON u.id = p.user_id ORDER BY u.id LIMIT 500`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		data.Pets = append(data.Pets, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = pool.Query(ctx, `SELECT clinic_id, slot_time FROM available_times ORDER BY slot_time LIMIT 2000`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var t slotTarget
		if err := rows.Scan(&t.ClinicID, &t.SlotTime); err != nil {
			rows.Close()
			return nil, err
		}
		data.Slots = append(data.Slots, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(data.Pets) < len(data.Users) {
		data.Users = data.Users[:len(data.Pets)]
	}

	return data, nil
}

func report(name string, m *OperationMetrics) {
	avg, p50, p95 := m.Stats()
	log.Printf("%s: total=%d success=%d conflict=%d not_found=%d error=%d avg=%s p50=%s p95=%s",
		name, m.Total, m.Success, m.Conflict, m.NotFound, m.Error, avg, p50, p95)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
