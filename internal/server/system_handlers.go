package server

import (
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/greenfolio/internal/di"
	"github.com/aristath/greenfolio/internal/scheduler"
)

// SystemStatsResponse is the body of GET /api/system/stats
type SystemStatsResponse struct {
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
	Goroutines    int     `json:"goroutines"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
	ProjectCount  int     `json:"projectCount"`
}

// DBInfo describes one database file
type DBInfo struct {
	Name   string  `json:"name"`
	Path   string  `json:"path"`
	SizeMB float64 `json:"sizeMb"`
}

// DatabaseStatsResponse is the body of GET /api/system/database/stats
type DatabaseStatsResponse struct {
	Databases   []DBInfo `json:"databases"`
	TotalSizeMB float64  `json:"totalSizeMb"`
	LastChecked string   `json:"lastChecked"`
}

// JobsStatusResponse lists the jobs that can be triggered manually
type JobsStatusResponse struct {
	TotalJobs int      `json:"totalJobs"`
	Jobs      []string `json:"jobs"`
}

// SystemHandlers handles system-wide monitoring and operations endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	container   *di.Container
	jobs        map[string]scheduler.Job
	scheduler   *scheduler.Scheduler
}

// NewSystemHandlers creates a new system handlers instance.
// jobs and sched may be nil.
func NewSystemHandlers(
	log zerolog.Logger,
	container *di.Container,
	jobs *di.JobInstances,
	sched *scheduler.Scheduler,
) *SystemHandlers {
	h := &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		startupTime: time.Now(),
		container:   container,
		jobs:        make(map[string]scheduler.Job),
		scheduler:   sched,
	}
	if jobs != nil {
		h.jobs = jobs.All()
	}
	return h
}

// HandleSystemStats returns host and process statistics
func (h *SystemHandlers) HandleSystemStats(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.getSystemStats()

	response := SystemStatsResponse{
		CPUPercent:    cpuPercent,
		MemoryPercent: ramPercent,
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
	}

	if h.container.ProjectRepo != nil {
		count, err := h.container.ProjectRepo.Count(r.Context())
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to count projects")
		}
		response.ProjectCount = count
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDatabaseStats returns database file sizes
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	response := DatabaseStatsResponse{
		Databases:   []DBInfo{},
		LastChecked: time.Now().Format(time.RFC3339),
	}

	for _, db := range h.container.Databases() {
		info := DBInfo{Name: db.Name(), Path: db.Path()}
		if stat, err := os.Stat(db.Path()); err == nil {
			info.SizeMB = float64(stat.Size()) / 1024 / 1024
		}
		response.TotalSizeMB += info.SizeMB
		response.Databases = append(response.Databases, info)
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleJobsStatus lists registered job names
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	h.writeJSON(w, http.StatusOK, JobsStatusResponse{TotalJobs: len(names), Jobs: names})
}

// HandleTriggerJob runs a job in the background
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"status": "error", "message": "Job not registered: " + name})
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job triggered")
	go func() {
		var err error
		if h.scheduler != nil {
			err = h.scheduler.RunNow(job)
		} else {
			err = job.Run()
		}
		if err != nil {
			h.log.Error().Err(err).Str("job", name).Msg("Manual job failed")
		}
	}()

	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "success", "message": "Job " + name + " triggered"})
}

// getSystemStats calculates CPU and RAM usage percentages.
// The 100ms CPU sample keeps the endpoint responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
