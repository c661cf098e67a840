package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"

	"github.com/dgraph-io/badger/v4"
	"github.com/shirou/gopsutil/process"
)

// InspectRow is one key/value pair rendered by the inspect endpoint. Values
// are stored as JSON, so they are passed through verbatim.
type InspectRow struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// StartDebugServer exposes a read-only view over the badger keyspace plus
// process stats. Meant for local inspection, never for production exposure.
func StartDebugServer(db *badger.DB, port int) {
	mux := http.NewServeMux()

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
		}

		var rows []InspectRow
		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					value := append(json.RawMessage{}, val...)
					if !json.Valid(value) {
						// Index entries store raw keys, not JSON documents.
						value, _ = json.Marshal(string(val))
					}
					rows = append(rows, InspectRow{Key: string(item.Key()), Value: value})
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rows)
	})

	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		stats := map[string]any{
			"alloc_mb":   m.Alloc / 1024 / 1024,
			"num_gc":     m.NumGC,
			"goroutines": runtime.NumGoroutine(),
		}
		if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
			if rss, err := p.MemoryInfo(); err == nil {
				stats["rss_mb"] = rss.RSS / 1024 / 1024
			}
			if cpu, err := p.CPUPercent(); err == nil {
				stats["cpu_percent"] = cpu
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats)
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("localhost:%d", port), mux)
	}()
}
