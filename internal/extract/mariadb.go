package extract

import "strings"

const (
	colListenerMariaDB = "리스너(MariaDB)"
	colInnoDBPool      = "InnoDB버퍼풀"
	colBinlog          = "바이너리로그"
)

type mariadbPayload struct {
	installation node
	service      node
	listener     node
	resources    node
	internal     node
	database     node
	dirs         node
	filesystems  node
	basics       basics
}

func decodeMariaDB(results node) mariadbPayload {
	return mariadbPayload{
		installation: results.get("installation"),
		service:      results.get("service_status"),
		listener:     results.get("listener"),
		resources:    results.get("os_resources"),
		internal:     results.get("db_internal"),
		database:     results.get("database"),
		dirs:         results.get("directory_structure"),
		filesystems:  results.get("filesystem_usage"),
		basics:       decodeBasics(results),
	}
}

type mariadbExtractor struct{}

func (mariadbExtractor) extract(results node, s *sheet) {
	p := decodeMariaDB(results)
	in := p.internal

	s.derive(colInstalled, "✗", func() string { return installed(p.installation.get("installed")) })
	s.derive(colInstallPath, NA, func() string {
		return clip(p.installation.get("base_directory").or(p.installation.get("binary_path")).textOr(NA), 40)
	})
	s.derive(colDirs, NA, func() string { return presenceUnless(p.dirs, "not present") })
	s.derive(colFilesystem, NA, func() string { return presenceUnless(p.filesystems, "not found") })
	s.derive(colService, NA+"/"+NA, func() string { return serviceState(p.service) })
	s.derive(colListenerMariaDB, "NOT LISTENING", func() string { return listenState(p.listener) })
	s.derive(colEngineFS, NA, func() string { return dfLine(p.filesystems.get("db_engine"), false) })
	s.derive(colArchiveFS, NA, func() string { return dfLine(p.filesystems.get("archive_log"), true) })
	s.derive(colSyslogFS, NA, func() string { return dfLine(p.filesystems.get("system_log"), true) })

	mem := parseFree(detail(p.resources.get("memory")))
	s.set(colMemTotal, mem.total)
	s.set(colMemUsed, mem.used)
	s.set(colMemAvail, mem.available)
	s.set(colMemory, mem.total+" / "+mem.available)
	s.derive(colMemPct, NA, func() string { return usagePercent(p.resources.get("memory")) })
	// MariaDB reports the top(1) snippet under CPU사용률 and the percentage under CPU.
	s.derive(colCPUPct, NA, func() string { return topCPUSnippet(detail(p.resources.get("cpu"))) })
	s.derive(colCPU, NA, func() string { return usagePercent(p.resources.get("cpu")) })
	s.derive(colProcCount, NA, func() string { return p.resources.get("process_count").textOr(NA) })

	s.derive(colInnoDBPool, NA, func() string {
		v, _ := in.get("innodb_buffer_pool").str()
		if !strings.Contains(v, "\t") {
			return NA
		}
		return strings.TrimSpace(strings.Split(v, "\t")[1])
	})
	s.derive(colBinlog, "OFF", func() string {
		if strings.Contains(in.get("log_bin").text(), "ON") {
			return "ON"
		}
		return "OFF"
	})
	s.derive(colTablespace, NA, func() string { return tablespaceSummary(in.get("tablespace"), "개 DB") })
	s.derive(colDBCount, NA, func() string { return dbCount(p.database.get("db_count")) })
	s.derive(colDBList, NA, func() string { return dbList(p.database.get("db_list")) })
	s.derive(colMaxConn, NA, func() string { return scalar(in.get("max_connections")) })
	s.derive(colSessions, NA, func() string { return scalar(in.get("active_sessions")) })
	s.derive(colConnStatus, NA, func() string { return connStatus(in.get("db_connection_status")) })
	s.derive(colAdminProc, NA, func() string { return adminProcess(in.get("mariadb_process")) })
	s.derive(colHA, NA, func() string { return haStatus(in.get("ha_status")) })
	s.derive(colBackup, "불가능", func() string { return onlineBackup(in.get("online_backup_possible")) })
	s.derive(colCPUTop, NA, func() string { return topFlag(p.resources.get("cpu_top_processes")) })
	s.derive(colMemTop, NA, func() string { return topFlag(p.resources.get("mem_top_processes")) })

	p.basics.apply(s)
	s.alias(colFSOver70, colDiskSummary)
}

// topCPUSnippet keeps the text after "%Cpu" in top(1) output.
func topCPUSnippet(s string) string {
	if !strings.Contains(s, "%Cpu") {
		return NA
	}
	return clip(strings.TrimSpace(strings.Split(s, "%Cpu")[1]), 50)
}
