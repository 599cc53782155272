package extract

import (
	"strconv"
	"strings"
)

const (
	colListenerPostgres = "리스너(PostgreSQL)"
	colSharedBuffers    = "공유버퍼"
	colArchiveMode      = "아카이브모드"
	colWALSize          = "WAL크기"
)

type postgresPayload struct {
	installation node
	service      node
	listener     node
	params       node
	tablespace   node
	wal          node
	filesystems  node
	connection   node
	resources    node
	database     node
	dirs         node
	process      node
	ha           node
	basics       basics
}

func decodePostgres(results node) postgresPayload {
	return postgresPayload{
		installation: results.get("installation"),
		service:      results.get("service_status"),
		listener:     results.get("listener"),
		params:       results.get("db_parameters"),
		tablespace:   results.get("tablespace"),
		wal:          results.get("wal"),
		filesystems:  results.get("filesystem_usage"),
		connection:   results.get("db_connection"),
		resources:    results.get("os_resources"),
		database:     results.get("database"),
		dirs:         results.get("directory_structure"),
		process:      results.get("postgres_process"),
		ha:           results.get("ha_status"),
		basics:       decodeBasics(results),
	}
}

type postgresExtractor struct{}

func (postgresExtractor) extract(results node, s *sheet) {
	p := decodePostgres(results)
	fs := p.filesystems

	s.derive(colInstalled, "✗", func() string { return installed(p.installation.get("installed")) })
	s.derive(colInstallPath, NA, func() string {
		return clip(p.installation.get("base_directory").or(p.installation.get("binary_path")).textOr(NA), 40)
	})
	s.derive(colDirs, NA, func() string { return presenceUnless(p.dirs, "not present") })
	s.derive(colEngineFS, NA, func() string {
		v, ok := fs.get("db_engine").filled()
		if !ok {
			return NA
		}
		parts := strings.Fields(v)
		if len(parts) < 5 {
			return NA
		}
		return parts[len(parts)-2]
	})
	s.derive(colArchiveFS, NA, func() string { return clip(fs.get("archive_log").textOr(NA), 50) })
	s.derive(colSyslogFS, NA, func() string { return clip(fs.get("system_log").textOr(NA), 50) })
	s.derive(colFilesystem, NA, func() string { return presenceUnless(fs, "not found") })
	s.derive(colFSOver70, "정상", func() string {
		if _, ok := fs.get("usage_over_70").filled(); ok {
			return "70% 초과 있음"
		}
		return "정상"
	})
	s.derive(colService, NA+"/"+NA, func() string { return serviceState(p.service) })
	s.derive(colListenerPostgres, "NOT LISTENING", func() string { return postgresListener(p.listener.get("port_5432")) })
	s.derive(colConnStatus, NA, func() string { return connStatus(p.connection.get("status"), "NO_CONNECTIONS") })
	s.derive(colSessions, NA, func() string { return postgresSessions(p.connection) })
	s.derive(colAdminProc, NA, func() string { return adminProcess(p.process) })
	s.derive(colHA, NA, func() string { return haStatus(p.ha) })

	memory := p.resources.get("memory")
	mem := parseFree(detail(memory))
	s.set(colMemTotal, mem.total)
	s.set(colMemUsed, mem.used)
	s.set(colMemAvail, mem.available)
	s.derive(colMemory, NA, func() string {
		if !mem.ok || mem.used == NA {
			return NA
		}
		return mem.total + " / " + mem.used
	})
	s.derive(colMemPct, NA, func() string { return usagePercent(memory) })

	cpu := p.resources.get("cpu")
	s.derive(colCPU, NA, func() string {
		if cpu.isMap() {
			v, ok := cpu.get("detail").str()
			if !ok {
				return NA
			}
			return clip(v, 50)
		}
		if v, ok := cpu.str(); ok {
			return clip(v, 50)
		}
		return NA
	})
	s.derive(colCPUPct, NA, func() string { return usagePercent(cpu) })
	s.derive(colProcCount, NA, func() string { return p.resources.get("process_count").textOr(NA) })

	s.derive(colSharedBuffers, NA, func() string { return strings.TrimSpace(p.params.get("shared_buffers").textOr(NA)) })
	s.derive(colMaxConn, NA, func() string { return strings.TrimSpace(p.params.get("max_connections").textOr(NA)) })
	s.derive(colTablespace, NA, func() string { return tablespaceSummary(p.tablespace.get("usage"), "개") })
	s.derive(colArchiveMode, NA, func() string { return strings.TrimSpace(p.wal.get("archive_mode").textOr(NA)) })
	s.derive(colBackup, "불가능", func() string { return onlineBackup(p.wal.get("online_backup_possible")) })
	s.derive(colWALSize, NA, func() string {
		v, ok := p.wal.get("wal_size").str()
		if !ok || v == NA {
			return NA
		}
		return strings.TrimSpace(v)
	})
	s.derive(colDBCount, NA, func() string { return dbCount(p.database.get("db_count")) })
	s.derive(colDBList, NA, func() string { return dbList(p.database.get("db_list")) })
	s.derive(colCPUTop, NA, func() string { return topFlag(p.resources.get("cpu_top_processes")) })
	s.derive(colMemTop, NA, func() string { return topFlag(p.resources.get("mem_top_processes")) })

	p.basics.apply(s)
}

// postgresListener adds the bound address class to the listener state.
func postgresListener(n node) string {
	v := n.text()
	if !strings.Contains(v, "LISTEN") {
		return "NOT LISTENING"
	}
	switch {
	case strings.Contains(v, "127.0.0.1"):
		return "LISTENING (localhost)"
	case strings.Contains(v, "0.0.0.0"):
		return "LISTENING (all)"
	}
	return "LISTENING"
}

// postgresSessions prefers active_sessions and falls back to counting the
// non-blank lines of session_detail.
func postgresSessions(conn node) string {
	if v := scalar(conn.get("active_sessions")); v != NA {
		return v
	}
	d, ok := conn.get("session_detail").filled()
	if !ok {
		return NA
	}
	if !strings.Contains(d, "\n") {
		return "1"
	}
	n := 0
	for _, line := range strings.Split(d, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return strconv.Itoa(n)
}
