package extract

import "strings"

const (
	colListener8080  = "리스너(8080)"
	colListener8005  = "리스너(8005)"
	colListener8009  = "리스너(8009)"
	colAppCount      = "애플리케이션수"
	colAppList       = "애플리케이션목록"
	colCatalinaHome  = "CATALINA_HOME파일시스템"
	colCatalinaBase  = "CATALINA_BASE파일시스템"
	colLogsFS        = "로그파일시스템"
	colTempFS        = "임시파일시스템"
	colServerXML     = "server.xml"
	colJavaOpts      = "JAVA_OPTS"
	colMaxHeap       = "Max_Heap"
	colCatalinaOut   = "catalina.out"
	colErrorLog      = "error.log"
	colAccessErrors  = "접속로그에러수"
	colStartupScript = "기동스크립트수정일"
)

type wasPayload struct {
	installation node
	service      node
	listener     node
	resources    node
	applications node
	process      node
	filesystems  node
	dirs         node
	config       node
	logs         node
	script       node
	basics       basics
}

func decodeWAS(results node) wasPayload {
	return wasPayload{
		installation: results.get("installation"),
		service:      results.get("service_status"),
		listener:     results.get("listener"),
		resources:    results.get("os_resources"),
		applications: results.get("applications"),
		process:      results.get("process"),
		filesystems:  results.get("filesystem_usage"),
		dirs:         results.get("directory_structure"),
		config:       results.get("configuration"),
		logs:         results.get("logs"),
		script:       results.get("script"),
		basics:       decodeBasics(results),
	}
}

type wasExtractor struct{}

func (wasExtractor) extract(results node, s *sheet) {
	p := decodeWAS(results)
	res := p.resources
	fs := p.filesystems

	s.derive(colInstalled, "✗", func() string {
		if strings.EqualFold(strings.TrimSpace(p.installation.get("installed").text()), "INSTALLED") {
			return "✓"
		}
		return "✗"
	})
	s.derive(colInstallPath, NA, func() string {
		v, ok := p.installation.get("catalina_home").or(p.installation.get("binary_path")).str()
		if !ok {
			return NA
		}
		return clip(v, 40)
	})
	p.basics.apply(s)
	s.derive(colCPUTop, NA, func() string { return topFlag(res.get("cpu_top_processes")) })
	s.derive(colMemTop, NA, func() string { return topFlag(res.get("mem_top_processes")) })
	s.derive(colProcCount, NA, func() string { return res.get("process_count").textOr(NA) })
	s.set(colDBCount, NA)
	s.set(colDBList, NA)
	s.set(colTablespace, NA)

	s.derive(colDirs, NA, func() string {
		if _, ok := p.dirs.filled(); ok {
			return present
		}
		return NA
	})
	s.derive(colFilesystem, NA, func() string {
		for _, k := range []string{"catalina_home", "catalina_base", "logs", "temp"} {
			if _, ok := fs.get(k).filled(); ok {
				return present
			}
		}
		return NA
	})
	s.derive(colService, NA, func() string {
		active, sub := p.service.get("active").text(), p.service.get("substate").text()
		switch {
		case active != "" && sub != "":
			return active + "/" + sub
		case active != "":
			return active
		}
		return NA
	})
	s.derive(colListener8080, "NOT LISTENING", func() string { return listenState(p.listener.get("port_8080")) })
	s.derive(colListener8005, "NOT LISTENING", func() string { return listenState(p.listener.get("port_8005")) })
	s.derive(colListener8009, "NOT LISTENING", func() string { return listenState(p.listener.get("port_8009")) })

	memory, cpu := res.get("memory"), res.get("cpu")
	s.derive(colMemTotal, NA, func() string { return clipDetail(memory) })
	s.derive(colMemPct, NA, func() string { return usagePercent(memory) })
	s.derive(colCPU, NA, func() string { return clipDetail(cpu) })
	s.derive(colCPUPct, NA, func() string { return usagePercent(cpu) })
	s.derive(colAdminProc, NA, func() string {
		switch strings.ToUpper(p.process.get("running").text()) {
		case "YES":
			return "실행중"
		case "NO":
			return "정지됨"
		}
		return NA
	})

	s.derive(colAppCount, NA, func() string { return p.applications.get("app_count").textOr(NA) })
	s.derive(colAppList, NA, func() string {
		v, ok := p.applications.get("deployed_apps").filled()
		if !ok {
			return NA
		}
		first := strings.Split(v, "\n")[0]
		if runeLen(first) > 50 {
			return clip(first, 50) + "..."
		}
		return first
	})
	s.derive(colCatalinaHome, NA, func() string { return firstPercent(fs.get("catalina_home")) })
	s.derive(colCatalinaBase, NA, func() string { return firstPercent(fs.get("catalina_base")) })
	s.derive(colLogsFS, NA, func() string { return firstPercent(fs.get("logs")) })
	s.derive(colTempFS, NA, func() string { return firstPercent(fs.get("temp")) })

	s.derive(colServerXML, NA, func() string { return foundFlag(p.config.get("server_xml")) })
	s.derive(colJavaOpts, NA, func() string {
		v, ok := p.config.get("java_opts").str()
		if !ok || v == NA {
			return NA
		}
		return clip(v, 50)
	})
	s.derive(colMaxHeap, NA, func() string { return p.config.get("max_heap").textOr(NA) })
	s.derive(colCatalinaOut, NA, func() string { return foundFlag(p.logs.get("catalina_log")) })
	s.derive(colErrorLog, NA, func() string { return foundFlag(p.logs.get("error_log")) })
	s.derive(colAccessErrors, NA, func() string { return p.logs.get("access_log_error_count").textOr(NA) })
	s.derive(colStartupScript, NA, func() string { return p.script.get("startup_script_date").textOr(NA) })

	// engine-only columns
	for _, col := range []string{colServerState, colBrokerState, colBrokerCount, colNCIAFS, colHA} {
		s.set(col, NA)
	}
}

// clipDetail shows a resource detail blob, up to 50 characters.
func clipDetail(n node) string {
	v := n
	if n.isMap() {
		v = n.get("detail")
	}
	s, ok := v.str()
	if !ok || s == NA {
		return NA
	}
	return clip(s, 50)
}

// foundFlag reads a file probe that reports "not found" when missing.
func foundFlag(n node) string {
	v, ok := n.filled()
	if !ok {
		return NA
	}
	if strings.Contains(strings.ToLower(v), "not found") {
		return absent
	}
	return present
}
