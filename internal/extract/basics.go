package extract

import (
	"fmt"
	"strconv"
	"strings"
)

// Columns shared by every family (the "os basics" health set).
const (
	colCPUModel    = "CPU모델명"
	colSwap        = "Swap상태"
	colRootDisk    = "루트디스크사용률"
	colDiskSummary = "디스크사용현황"
	colNetwork     = "네트워크통신"
	colNTP         = "NTP동기화"
	colCPUTop      = "CPU상위프로세스"
	colMemTop      = "메모리상위프로세스"
)

const (
	connected    = "✓ 연결됨"
	disconnected = "✗ 연결실패"
	present      = "있음"
	absent       = "없음"
)

// basics is the host health block. Engine probes report it under
// results.os_basics; the os probe spreads it across its own sections.
type basics struct {
	cpuModel node
	swap     node
	rootDisk node
	allDisk  node
	ping     node
	ntp      node
	// osPing selects the os probe's ping interpretation.
	osPing bool
}

func decodeBasics(results node) basics {
	b := results.get("os_basics")
	return basics{
		cpuModel: b.get("cpu_model_name"),
		swap:     b.get("swap_status"),
		rootDisk: b.get("root_disk_usage"),
		allDisk:  b.get("all_disk_usage"),
		ping:     b.get("network_ping_result"),
		ntp:      b.get("ntp_sync_status"),
	}
}

func (b basics) apply(s *sheet) {
	s.derive(colCPUModel, NA, func() string { return cpuModel(b.cpuModel) })
	s.derive(colSwap, NA, func() string { return swapUsage(b.swap) })
	s.derive(colRootDisk, NA, func() string { return rootDisk(b.rootDisk) })
	s.derive(colDiskSummary, NA, func() string { return diskPressure(b.allDisk) })
	s.derive(colNetwork, NA, func() string { return networkStatus(b.ping, b.osPing) })
	s.derive(colNTP, NA, func() string { return ntpStatus(b.ntp) })
}

func cpuModel(n node) string {
	s, ok := n.str()
	if !ok || s == NA {
		return NA
	}
	return clip(s, 50)
}

// swapUsage turns "Swap: 2.0Gi 0B 2.0Gi" into "2.0Gi / 0B".
func swapUsage(n node) string {
	s, ok := n.filled()
	if !ok {
		return NA
	}
	parts := strings.Fields(s)
	if len(parts) < 3 {
		return NA
	}
	return parts[1] + " / " + parts[2]
}

func rootDisk(n node) string {
	if !n.present() {
		return NA
	}
	v := n.text()
	if isDigits(v) {
		return v + "%"
	}
	return v
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// diskPressure counts filesystems at or above 70% in a df-style table.
func diskPressure(n node) string {
	s, ok := n.str()
	if !ok || strings.TrimSpace(s) == "" {
		return NA
	}
	lines := strings.Split(s, "\n")
	count := 0
	for _, line := range lines[1:] {
		if !strings.Contains(line, "%") || strings.Contains(line, "Use%") {
			continue
		}
		for _, tok := range strings.Fields(line) {
			if !strings.HasSuffix(tok, "%") || tok == "Use%" {
				continue
			}
			pct, err := strconv.Atoi(strings.ReplaceAll(tok, "%", ""))
			if err != nil {
				continue
			}
			if pct >= 70 {
				count++
			}
		}
	}
	if count > 0 {
		return fmt.Sprintf("%d개 디스크 70%% 이상", count)
	}
	return "정상"
}

// networkStatus reads ping output with plain substring rules. Engine probes
// count as connected on "0% packet loss" or when no "0 received" appears.
// The os probe reports failure on any other "packet loss" line and shows
// unrecognized text as is.
func networkStatus(n node, osProbe bool) string {
	s, ok := n.str()
	if !ok || strings.TrimSpace(s) == "" {
		return NA
	}
	lossFree := strings.Contains(s, "0% packet loss")
	if osProbe {
		switch {
		case lossFree:
			return connected
		case strings.Contains(s, "packet loss"):
			return disconnected
		}
		return clip(s, 50)
	}
	if lossFree || !strings.Contains(s, "0 received") {
		return connected
	}
	return disconnected
}

func ntpStatus(n node) string {
	s, ok := n.str()
	if !ok || strings.TrimSpace(s) == "" {
		return NA
	}
	switch {
	case strings.Contains(s, "NTP not configured"):
		return "미설정"
	case strings.Contains(s, "*"):
		return "✓ 동기화됨"
	}
	return "설정됨"
}

// topFlag marks a non-empty top-process listing as present.
func topFlag(n node) string {
	if _, ok := n.filled(); ok {
		return present
	}
	return NA
}

// presenceUnless reports present unless the rendered value contains marker.
func presenceUnless(n node, marker string) string {
	if !n.present() {
		return NA
	}
	if strings.Contains(strings.ToLower(n.text()), marker) {
		return absent
	}
	return present
}
