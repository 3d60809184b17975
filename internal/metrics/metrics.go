// Package metrics reads host CPU and memory utilization.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Sample is one CPU and memory reading. Both values are percentages
// exactly as the source reported them.
type Sample struct {
	CPU    float64 `json:"cpu"`
	Memory float64 `json:"memory"`
}

// String formats the sample for log lines.
func (s Sample) String() string {
	return fmt.Sprintf("cpu=%.1f%% memory=%.1f%%", s.CPU, s.Memory)
}

// Encode returns the flat JSON text carried in a stats_update event.
func (s Sample) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses the text produced by Encode.
func Decode(text string) (Sample, error) {
	var s Sample
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return Sample{}, err
	}
	return s, nil
}

// Source provides utilization readings.
type Source interface {
	CPUPercent(ctx context.Context) (float64, error)
	MemoryPercent(ctx context.Context) (float64, error)
}

// Collect takes one reading from src. If either value cannot be read no
// sample is produced.
func Collect(ctx context.Context, src Source) (Sample, error) {
	cpuPct, err := src.CPUPercent(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("read cpu: %w", err)
	}
	memPct, err := src.MemoryPercent(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("read memory: %w", err)
	}
	return Sample{CPU: cpuPct, Memory: memPct}, nil
}

// HostSource reads the local machine through gopsutil.
type HostSource struct {
	// CPUWindow is how long CPU usage is measured for each reading.
	CPUWindow time.Duration
}

// NewHostSource returns a HostSource measuring CPU over 100ms.
func NewHostSource() *HostSource {
	return &HostSource{CPUWindow: 100 * time.Millisecond}
}

// CPUPercent returns overall CPU usage across all cores.
func (h *HostSource) CPUPercent(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, h.CPUWindow, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("no cpu usage reported")
	}
	return percents[0], nil
}

// MemoryPercent returns the share of physical memory in use.
func (h *HostSource) MemoryPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}
