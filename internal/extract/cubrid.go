package extract

import (
	"strconv"
	"strings"
)

const (
	colServerState = "서버상태"
	colBrokerState = "브로커상태"
	colBrokerCount = "브로커개수"
	colNCIAFS      = "NCIA파일시스템"
)

// CUBRID role states.
const (
	StateRunning = "RUNNING"
	StateStopped = "STOPPED"
	StateError   = "ERROR"
	StateUnknown = "UNKNOWN"
)

type cubridPayload struct {
	installation node
	service      node
	processes    node
	database     node
	resources    node
	tablespace   node
	filesystem   node
	ha           node
	basics       basics
}

func decodeCubrid(results node) cubridPayload {
	return cubridPayload{
		installation: results.get("installation"),
		service:      results.get("service_status"),
		processes:    results.get("processes"),
		database:     results.get("database"),
		resources:    results.get("os_resources"),
		tablespace:   results.get("tablespace"),
		filesystem:   results.get("filesystem"),
		ha:           results.get("ha"),
		basics:       decodeBasics(results),
	}
}

type cubridExtractor struct{}

func (cubridExtractor) extract(results node, s *sheet) {
	p := decodeCubrid(results)

	s.derive(colInstalled, "✗", func() string {
		if p.installation.get("home_exists").truthy() && p.installation.get("bin_exists").truthy() {
			return "✓"
		}
		return "✗"
	})
	s.derive(colInstallPath, NA, func() string { return clip(p.installation.get("cubrid_home").textOr(NA), 40) })
	s.derive(colService, StateStopped, func() string { return CubridState(p.service.get("service").text(), false) })
	s.derive(colServerState, StateStopped, func() string { return CubridState(p.service.get("server").text(), false) })
	s.derive(colBrokerState, StateStopped, func() string { return CubridState(p.service.get("broker").text(), true) })
	s.derive(colBrokerCount, NA, func() string { return p.processes.get("broker_count").textOr(NA) })
	s.derive(colProcCount, NA, func() string { return p.processes.get("total_proc_count").textOr(NA) })
	s.derive(colAdminProc, absent, func() string {
		if p.processes.get("admin_proc").truthy() {
			return present
		}
		return absent
	})

	list := p.database.get("db_list")
	s.derive(colDBCount, "0", func() string {
		v, ok := list.str()
		if !ok || v == NA {
			return "0"
		}
		return strconv.Itoa(len(strings.Fields(v)))
	})
	s.derive(colDBList, NA, func() string { return clip(list.textOr(NA), 50) })

	res := p.resources
	s.derive(colCPUTop, NA, func() string { return topFlag(firstFilled(res.get("cpu_top_processes"), res.get("cpu_usage_top"))) })
	s.derive(colMemTop, NA, func() string { return topFlag(firstFilled(res.get("mem_top_processes"), res.get("mem_usage_top"))) })
	s.derive(colTablespace, NA, func() string {
		if v, ok := p.tablespace.get("spacedb_info").str(); ok && strings.TrimSpace(v) != "" {
			return present
		}
		return NA
	})
	s.derive(colNCIAFS, absent, func() string {
		if v, ok := p.filesystem.get("ncia_usage").str(); ok && strings.TrimSpace(v) != "" {
			return present
		}
		return absent
	})
	s.derive(colHA, "미구성", func() string {
		if v, ok := p.ha.get("ha_status").str(); ok && strings.TrimSpace(v) != "" {
			return "구성됨"
		}
		return "미구성"
	})

	p.basics.apply(s)
}

// CubridState classifies a cubrid service/server/broker status line.
// Keywords are tested in precedence order: error or failed, then running,
// then not running or stopped, then unknown. Anything else is STOPPED.
// Brokers also report "active", which counts as running unless "inactive".
func CubridState(status string, broker bool) string {
	l := strings.ToLower(strings.TrimSpace(status))
	if l == "" {
		return StateStopped
	}
	notRunning := strings.Contains(l, "not running")
	running := strings.Contains(l, "running")
	if broker && strings.Contains(strings.ReplaceAll(l, "inactive", ""), "active") {
		running = true
	}
	switch {
	case strings.Contains(l, "error"), strings.Contains(l, "failed"):
		return StateError
	case running && !notRunning:
		return StateRunning
	case notRunning, strings.Contains(l, "stopped"):
		return StateStopped
	case strings.Contains(l, "unknown"):
		return StateUnknown
	}
	return StateStopped
}

// firstFilled returns a unless it is absent or blank.
func firstFilled(a, b node) node {
	if _, ok := a.filled(); ok {
		return a
	}
	return b
}
