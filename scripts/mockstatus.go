// Mockstatus serves a generated /api/status for trying the dashboard
// without running the checker.
//
// Usage:
//
//	go run ./scripts --addr :5001 --mode ok --proxies 5
//	go run ./cmd watch --endpoint http://127.0.0.1:5001/api/status
//
// Modes:
//   - ok:       random results with a matching best proxy
//   - empty:    no results and no best proxy
//   - mismatch: a best proxy that is not among the results
//   - error:    500 with a JSON error body
//   - invalid:  200 with a body that is not JSON
//
// Every response carries an X-Request-Id header so requests can be matched
// with the dashboard's refresh logs.
package main

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/angeloszaimis/proxy-dashboard/internal/checker"
	"github.com/angeloszaimis/proxy-dashboard/internal/status"
)

var statuses = []string{
	status.StatusOK,
	status.StatusOK,
	status.StatusOK,
	status.StatusSlow,
	"error_timeout",
	"error_connect",
}

func main() {
	addr := pflag.String("addr", ":5001", "address to listen on")
	mode := pflag.String("mode", "ok", "response mode: ok, empty, mismatch, error or invalid")
	count := pflag.Int("proxies", 5, "number of generated proxy results")
	pflag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		log.Info("request",
			slog.String("id", requestID),
			slog.String("mode", *mode),
			slog.String("from", r.RemoteAddr))

		switch *mode {
		case "error":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": "failed to read status file: simulated"}`))
			return
		case "invalid":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte("<html>not json</html>"))
			return
		}

		snap := generate(*mode, *count)

		b, err := status.Encode(snap)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(b)
	})

	log.Info("starting mock status endpoint", slog.String("addr", *addr), slog.String("mode", *mode))
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Error("server failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func generate(mode string, count int) status.Snapshot {
	var snap status.Snapshot
	snap.Stamp(time.Now())

	if mode == "empty" {
		return snap
	}

	for i := 0; i < count; i++ {
		result := status.ProxyResult{
			URL:    fmt.Sprintf("http://10.0.0.%d:8080", i+1),
			Status: statuses[rand.IntN(len(statuses))],
		}

		switch result.Status {
		case status.StatusOK:
			result.Delay = status.Millis(int64(50 + rand.IntN(1500)))
		case status.StatusSlow:
			result.Delay = status.Millis(int64(2000 + rand.IntN(3000)))
		}

		snap.AllResults = append(snap.AllResults, result)
	}

	if mode == "mismatch" {
		snap.BestProxy = &status.ProxyResult{URL: "http://192.0.2.1:3128", Status: status.StatusOK, Delay: status.Millis(1)}
		return snap
	}

	snap.BestProxy = checker.SelectBest(snap.AllResults)

	return snap
}
