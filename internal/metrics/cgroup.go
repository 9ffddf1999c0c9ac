package metrics

import (
	"os"
	"strconv"
	"strings"
)

// cgroupV2MemoryPath is the unified cgroup v2 path exposing current
// memory usage, present inside most containers and modern Linux hosts.
const cgroupV2MemoryPath = "/sys/fs/cgroup/memory.current"

// ReadCgroupMemoryKB reads the process's current memory usage in
// kilobytes from cgroup v2 accounting. ok is false outside a cgroup v2
// environment (the file is absent, unreadable, or not a plain integer),
// in which case the caller should simply skip the observation rather
// than treat it as an error.
func ReadCgroupMemoryKB() (kb uint64, ok bool) {
	contents, err := os.ReadFile(cgroupV2MemoryPath)
	if err != nil {
		return 0, false
	}
	bytes, err := strconv.ParseUint(strings.TrimSpace(string(contents)), 10, 64)
	if err != nil {
		return 0, false
	}
	return bytes / 1024, true
}
