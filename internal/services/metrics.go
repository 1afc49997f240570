package services

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

type MetricSample struct {
	CapturedAt        time.Time `json:"capturedAt"`
	ProcessRSSBytes   int64     `json:"processRssBytes"`
	SystemMemoryTotal int64     `json:"systemMemoryTotalBytes"`
	SystemMemoryUsed  int64     `json:"systemMemoryUsedBytes"`
	DiskTotalBytes    int64     `json:"diskTotalBytes"`
	DiskUsedBytes     int64     `json:"diskUsedBytes"`
	ProcessCpuLoad    float64   `json:"processCpuLoad"`
	SystemCpuLoad     float64   `json:"systemCpuLoad"`
}

// CaptureMetrics samples the host. diskPath falls back to "/" when it cannot
// be measured (for example before the upload dir exists).
func CaptureMetrics(diskPath string) (MetricSample, error) {
	sample := MetricSample{CapturedAt: time.Now().UTC()}
	memStat, err := mem.VirtualMemory()
	if err != nil {
		return MetricSample{}, WrapError(err, "memory stats")
	}
	sample.SystemMemoryTotal = int64(memStat.Total)
	sample.SystemMemoryUsed = int64(memStat.Total - memStat.Available)

	diskStat, err := disk.Usage(diskPath)
	if err != nil {
		diskStat, err = disk.Usage("/")
	}
	if err == nil && diskStat != nil {
		sample.DiskTotalBytes = int64(diskStat.Total)
		sample.DiskUsedBytes = int64(diskStat.Used)
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if rss, err := proc.MemoryInfo(); err == nil && rss != nil {
			sample.ProcessRSSBytes = int64(rss.RSS)
		}
		if cpuPerc, err := proc.CPUPercent(); err == nil {
			sample.ProcessCpuLoad = cpuPerc / 100.0
		}
	}
	if sysCPU, err := cpu.Percent(0, false); err == nil && len(sysCPU) > 0 {
		sample.SystemCpuLoad = sysCPU[0] / 100.0
	}
	return sample, nil
}

// MetricsHistory is a fixed-size ring of the latest samples.
type MetricsHistory struct {
	mu      sync.RWMutex
	samples []MetricSample
	next    int
	full    bool
}

func NewMetricsHistory(size int) *MetricsHistory {
	if size < 1 {
		size = 1
	}
	return &MetricsHistory{samples: make([]MetricSample, size)}
}

func (h *MetricsHistory) Add(sample MetricSample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples[h.next] = sample
	h.next = (h.next + 1) % len(h.samples)
	if h.next == 0 {
		h.full = true
	}
}

// Latest returns up to limit samples, oldest first.
func (h *MetricsHistory) Latest(limit int) []MetricSample {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := h.next
	if h.full {
		count = len(h.samples)
	}
	if limit <= 0 || limit > count {
		limit = count
	}
	items := make([]MetricSample, 0, limit)
	start := h.next - limit
	if start < 0 {
		start += len(h.samples)
	}
	for i := 0; i < limit; i++ {
		items = append(items, h.samples[(start+i)%len(h.samples)])
	}
	return items
}

type MetricsHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	ch      chan MetricSample
	log     *zap.SugaredLogger
}

func NewMetricsHub(log *zap.SugaredLogger) *MetricsHub {
	return &MetricsHub{
		clients: map[*websocket.Conn]bool{},
		ch:      make(chan MetricSample, 16),
		log:     log,
	}
}

func (h *MetricsHub) Run(ctx context.Context) {
	for {
		select {
		case sample := <-h.ch:
			h.send(sample)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *MetricsHub) send(sample MetricSample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(sample); err != nil {
			h.log.Debugw("metrics client dropped", "remote", conn.RemoteAddr().String(), "error", err)
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
}

func (h *MetricsHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
}

// Broadcast never blocks; samples are dropped while the hub is behind.
func (h *MetricsHub) Broadcast(sample MetricSample) {
	select {
	case h.ch <- sample:
	default:
	}
}

func (h *MetricsHub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

func (h *MetricsHub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

func (h *MetricsHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// RunSampler captures a sample every interval into history and the hub until
// ctx is done.
func RunSampler(ctx context.Context, interval time.Duration, diskPath string, history *MetricsHistory, hub *MetricsHub, log *zap.SugaredLogger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sample, err := CaptureMetrics(diskPath)
			if err != nil {
				log.Warnw("metrics capture failed", "error", err)
				continue
			}
			history.Add(sample)
			hub.Broadcast(sample)
		case <-ctx.Done():
			return nil
		}
	}
}
