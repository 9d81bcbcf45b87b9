package util

import (
	"bufio"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// SystemInfo describes the host running framescope.
type SystemInfo struct {
	Hostname string
	NumCPU   int
	OS       string
	Arch     string
}

// GetSystemInfo collects host details for the info report.
func GetSystemInfo() SystemInfo {
	hostname, _ := os.Hostname()
	return SystemInfo{
		Hostname: hostname,
		NumCPU:   runtime.NumCPU(),
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
	}
}

// AvailableMemoryBytes reads MemAvailable from /proc/meminfo. It returns 0
// where that file does not exist.
func AvailableMemoryBytes() uint64 {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		rest, ok := strings.CutPrefix(scanner.Text(), "MemAvailable:")
		if !ok {
			continue
		}
		kb, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimSpace(rest), " kB"), 10, 64)
		if err != nil {
			return 0
		}
		return kb * 1024
	}
	return 0
}

// MaxFramesForMemory caps a decode-ahead queue so that its frames fit in
// memFraction of available memory. It returns want when memory cannot be
// determined, and never less than 1.
func MaxFramesForMemory(want int, frameBytes uint64, memFraction float64) int {
	available := AvailableMemoryBytes()
	if available == 0 || frameBytes == 0 {
		return max(want, 1)
	}
	fits := int(uint64(float64(available)*memFraction) / frameBytes)
	return max(min(want, fits), 1)
}

// LogicalCores returns the number of logical CPUs.
func LogicalCores() int {
	return runtime.NumCPU()
}

// PhysicalCores returns the number of physical cores, used as the FFMS2
// decoder thread count. Without topology information it assumes two
// hardware threads per core.
func PhysicalCores() int {
	var cores int
	switch runtime.GOOS {
	case "linux":
		cores = physicalCoresLinux()
	case "darwin":
		cores = sysctlInt("hw.physicalcpu")
	}
	if cores > 0 {
		return cores
	}
	return max(LogicalCores()/2, 1)
}

// physicalCoresLinux counts distinct package/core pairs under sysfs.
func physicalCoresLinux() int {
	cpus, err := filepath.Glob("/sys/devices/system/cpu/cpu[0-9]*/topology")
	if err != nil {
		return 0
	}

	seen := make(map[[2]string]bool)
	for _, topo := range cpus {
		core, err := os.ReadFile(filepath.Join(topo, "core_id"))
		if err != nil {
			continue
		}
		pkg, _ := os.ReadFile(filepath.Join(topo, "physical_package_id"))
		seen[[2]string{strings.TrimSpace(string(pkg)), strings.TrimSpace(string(core))}] = true
	}
	return len(seen)
}

func sysctlInt(name string) int {
	out, err := exec.Command("sysctl", "-n", name).Output()
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
