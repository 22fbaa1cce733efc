package probe

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	statPath    = "/proc/stat"
	meminfoPath = "/proc/meminfo"
	thermalPath = "/sys/class/thermal/thermal_zone0/temp"
)

// SystemStats is one snapshot of host health.
type SystemStats struct {
	CPUPercent    float64
	MemoryPercent float64
	DiskPercent   float64
	// TemperatureC is -1 when the platform exposes no thermal zone.
	TemperatureC float64
}

type cpuTimes struct {
	idle  uint64
	total uint64
}

// SysStatReader samples CPU, memory, disk, and temperature from the
// usual Linux interfaces. CPU usage is the busy fraction between two
// successive samples, so the first call reports 0.
type SysStatReader struct {
	// DiskPath is the filesystem whose usage is reported. Defaults to "/".
	DiskPath string
	// Overrides for tests.
	StatPath    string
	MeminfoPath string
	ThermalPath string

	prevCPU *cpuTimes
}

// Sample reads all four statistics. Temperature failures degrade to -1;
// the other readings fail the sample.
func (r *SysStatReader) Sample() (SystemStats, error) {
	var stats SystemStats

	cpu, err := r.readCPU()
	if err != nil {
		return stats, err
	}
	if prev := r.prevCPU; prev != nil && cpu.total > prev.total {
		dTotal := cpu.total - prev.total
		dIdle := cpu.idle - prev.idle
		stats.CPUPercent = 100 * float64(dTotal-dIdle) / float64(dTotal)
	}
	r.prevCPU = &cpu

	stats.MemoryPercent, err = r.readMemory()
	if err != nil {
		return stats, err
	}

	stats.DiskPercent, err = r.readDisk()
	if err != nil {
		return stats, err
	}

	stats.TemperatureC = r.readTemperature()
	return stats, nil
}

func (r *SysStatReader) readCPU() (cpuTimes, error) {
	path := r.StatPath
	if path == "" {
		path = statPath
	}
	f, err := os.Open(path)
	if err != nil {
		return cpuTimes{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 || fields[0] != "cpu" {
			continue
		}
		var t cpuTimes
		for i, raw := range fields[1:] {
			v, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return cpuTimes{}, fmt.Errorf("bad cpu field %q: %w", raw, err)
			}
			t.total += v
			// idle is column 4, iowait column 5.
			if i == 3 || i == 4 {
				t.idle += v
			}
		}
		return t, nil
	}
	if err := scanner.Err(); err != nil {
		return cpuTimes{}, err
	}
	return cpuTimes{}, fmt.Errorf("no aggregate cpu line in %s", path)
}

func (r *SysStatReader) readMemory() (float64, error) {
	path := r.MeminfoPath
	if path == "" {
		path = meminfoPath
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var total, available uint64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		v, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			total = v
		case "MemAvailable:":
			available = v
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, fmt.Errorf("no MemTotal in %s", path)
	}
	return 100 * float64(total-available) / float64(total), nil
}

func (r *SysStatReader) readDisk() (float64, error) {
	path := r.DiskPath
	if path == "" {
		path = "/"
	}
	var fs unix.Statfs_t
	if err := unix.Statfs(path, &fs); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	if fs.Blocks == 0 {
		return 0, nil
	}
	used := fs.Blocks - fs.Bavail
	return 100 * float64(used) / float64(fs.Blocks), nil
}

func (r *SysStatReader) readTemperature() float64 {
	path := r.ThermalPath
	if path == "" {
		path = thermalPath
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return -1
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return -1
	}
	return float64(milli) / 1000
}
