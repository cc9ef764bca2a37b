package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/menabung/rebalancer/internal/database"
	"github.com/menabung/rebalancer/internal/modules/yields"
)

// SystemHandlers serves health and process status
type SystemHandlers struct {
	aggregator *yields.Aggregator
	storeDB    *database.DB
	mode       yields.Mode
	backend    string
	startedAt  time.Time
	now        func() time.Time
	log        zerolog.Logger
}

// NewSystemHandlers creates system handlers. storeDB may be nil.
func NewSystemHandlers(aggregator *yields.Aggregator, storeDB *database.DB, mode yields.Mode, backend string, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		aggregator: aggregator,
		storeDB:    storeDB,
		mode:       mode,
		backend:    backend,
		startedAt:  time.Now(),
		now:        time.Now,
		log:        log.With().Str("handler", "system").Logger(),
	}
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status          string          `json:"status"`
	UptimeSeconds   float64         `json:"uptimeSeconds"`
	ProcessRSSBytes uint64          `json:"processRssBytes"`
	ProcessCPU      float64         `json:"processCpuPercent"`
	HostMemPercent  float64         `json:"hostMemPercent"`
	YieldMode       yields.Mode     `json:"yieldMode"`
	StoreBackend    string          `json:"storeBackend"`
	CacheAgeSeconds *float64        `json:"cacheAgeSeconds,omitempty"`
	Database        *database.Stats `json:"database,omitempty"`
}

// HandleHealth handles GET /health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.storeDB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.storeDB.QuickCheck(ctx); err != nil {
			h.log.Error().Err(err).Msg("Store database health check failed")
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	resp := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: now.Sub(h.startedAt).Seconds(),
		YieldMode:     h.mode,
		StoreBackend:  h.backend,
	}

	resp.ProcessRSSBytes, resp.ProcessCPU = h.processStats(r.Context())
	if vm, err := mem.VirtualMemoryWithContext(r.Context()); err == nil {
		resp.HostMemPercent = vm.UsedPercent
	} else {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	}

	if snap, ok := h.aggregator.Cached(); ok {
		age := snap.Age(now).Seconds()
		resp.CacheAgeSeconds = &age
	}

	if h.storeDB != nil {
		if stats, err := h.storeDB.GetStats(); err == nil {
			resp.Database = stats
		} else {
			h.log.Warn().Err(err).Msg("Failed to get database statistics")
		}
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// processStats returns this process's resident memory and CPU percent.
func (h *SystemHandlers) processStats(ctx context.Context) (uint64, float64) {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to inspect process")
		return 0, 0
	}

	var rss uint64
	if info, err := proc.MemoryInfoWithContext(ctx); err == nil {
		rss = info.RSS
	}
	cpuPercent, err := proc.CPUPercentWithContext(ctx)
	if err != nil {
		cpuPercent = 0
	}
	return rss, cpuPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
