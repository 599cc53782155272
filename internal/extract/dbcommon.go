package extract

import (
	"strconv"
	"strings"
)

// Columns shared by database engines and the WAS tab.
const (
	colInstalled   = "설치확인"
	colInstallPath = "설치경로"
	colDirs        = "디렉토리구조"
	colFilesystem  = "파일시스템"
	colService     = "서비스상태"
	colMemTotal    = "메모리(Total)"
	colMemUsed     = "메모리(Used)"
	colMemAvail    = "메모리(Available)"
	colMemory      = "메모리"
	colMemPct      = "메모리사용률"
	colCPU         = "CPU"
	colCPUPct      = "CPU사용률"
	colProcCount   = "프로세스수"
	colTablespace  = "테이블스페이스"
	colDBCount     = "데이터베이스수"
	colDBList      = "데이터베이스목록"
	colMaxConn     = "최대연결수"
	colSessions    = "활성세션수"
	colConnStatus  = "DB접속상태"
	colAdminProc   = "관리프로세스"
	colHA          = "HA상태"
	colBackup      = "온라인백업가능"
	colEngineFS    = "DB엔진파일시스템"
	colArchiveFS   = "아카이브로그파일시스템"
	colSyslogFS    = "시스템로그파일시스템"
	colFSOver70    = "파일시스템(70%초과)"
)

// installed checks the first line of the installation marker.
func installed(n node) string {
	v := strings.TrimSpace(n.text())
	if i := strings.IndexByte(v, '\n'); i >= 0 {
		v = v[:i]
	}
	if strings.EqualFold(strings.TrimSpace(v), "INSTALLED") {
		return "✓"
	}
	return "✗"
}

// serviceState renders "<active>/<substate>" with N/A for missing halves.
func serviceState(svc node) string {
	return svc.get("active").textOr(NA) + "/" + svc.get("substate").textOr(NA)
}

// memFree tokenizes `free` output: line two, tokens 1, 2 and 6.
type memFree struct {
	total, used, available string
	ok                     bool
}

func parseFree(detail string) memFree {
	m := memFree{total: NA, used: NA, available: NA}
	if !strings.Contains(detail, "\n") {
		return m
	}
	lines := strings.Split(detail, "\n")
	parts := strings.Fields(lines[1])
	if len(parts) < 2 {
		return m
	}
	m.total = parts[1]
	if len(parts) > 2 {
		m.used = parts[2]
	}
	if len(parts) > 6 {
		m.available = parts[6]
	}
	m.ok = true
	return m
}

// detail returns the text blob of a resource that is either a string or a
// mapping with a "detail" key.
func detail(n node) string {
	if n.isMap() {
		s, _ := n.get("detail").str()
		return s
	}
	return n.text()
}

// usagePercent returns the usage_percent of a structured resource.
func usagePercent(n node) string {
	if !n.isMap() {
		return NA
	}
	return n.get("usage_percent").textOr(NA)
}

// dbCount annotates an explicit zero; other values pass through trimmed.
func dbCount(n node) string {
	v := strings.TrimSpace(n.textOr(NA))
	if v == "0" {
		return "0 (사용자 DB 없음)"
	}
	return v
}

// dbList shows up to 50 characters, "없음" for an empty list.
func dbList(n node) string {
	if !n.present() {
		return absent
	}
	s, ok := n.str()
	if !ok {
		return NA
	}
	s = strings.TrimSpace(s)
	if s == "" || s == NA {
		return absent
	}
	if runeLen(s) > 50 {
		return clip(s, 50) + "..."
	}
	return s
}

// tablespaceSummary renders "<lines><unit> | <first 30 chars>...".
func tablespaceSummary(n node, unit string) string {
	s, ok := n.filled()
	if !ok {
		return NA
	}
	lines := strings.Split(s, "\n")
	out := strconv.Itoa(len(lines)) + unit
	if lines[0] != "" {
		out += " | " + clip(lines[0], 30) + "..."
	}
	return out
}

// connStatus classifies a connection probe. DISCONNECTED is tested first
// because it contains CONNECTED.
func connStatus(n node, failMarkers ...string) string {
	s, ok := n.filled()
	if !ok {
		return NA
	}
	up := strings.ToUpper(s)
	for _, m := range append([]string{"DISCONNECTED"}, failMarkers...) {
		if strings.Contains(up, m) {
			return disconnected
		}
	}
	if strings.Contains(up, "CONNECTED") {
		return connected
	}
	return s
}

// adminProcess classifies a RUNNING/NOT_RUNNING marker.
func adminProcess(n node) string {
	s, ok := n.filled()
	if !ok {
		return NA
	}
	up := strings.ToUpper(s)
	switch {
	case strings.Contains(up, "NOT_RUNNING"), strings.Contains(up, "NOT RUNNING"):
		return "✗ 중지됨"
	case strings.Contains(up, "RUNNING"):
		return "✓ 실행중"
	}
	return s
}

func haStatus(n node) string {
	s, ok := n.filled()
	if !ok {
		return NA
	}
	return clip(strings.TrimSpace(s), 50)
}

// onlineBackup reads a POSSIBLE / NOT POSSIBLE marker.
func onlineBackup(n node) string {
	up := strings.ToUpper(n.text())
	for _, neg := range []string{"NOT POSSIBLE", "NOT_POSSIBLE", "IMPOSSIBLE"} {
		if strings.Contains(up, neg) {
			return "불가능"
		}
	}
	if strings.Contains(up, "POSSIBLE") {
		return "가능"
	}
	return "불가능"
}

// scalar returns a trimmed string or an integral number, N/A otherwise.
func scalar(n node) string {
	if s, ok := n.filled(); ok {
		return strings.TrimSpace(s)
	}
	if f, ok := n.number(); ok {
		return strconv.Itoa(int(f))
	}
	return NA
}

// dfLine condenses one df row to "<device> <use%> <mount>". Rows that do not
// look like df output are shown truncated.
func dfLine(n node, skipNotFound bool) string {
	s, ok := n.filled()
	if !ok {
		return NA
	}
	if skipNotFound && strings.Contains(strings.ToLower(s), "not found") {
		return NA
	}
	parts := strings.Fields(s)
	if len(parts) < 5 || !strings.HasSuffix(parts[len(parts)-2], "%") {
		return clip(s, 50)
	}
	return parts[0] + " " + parts[len(parts)-2] + " " + parts[len(parts)-1]
}

// firstPercent returns the first token ending in '%'.
func firstPercent(n node) string {
	s, ok := n.str()
	if !ok || !strings.Contains(s, "%") {
		return NA
	}
	for _, tok := range strings.Fields(s) {
		if strings.HasSuffix(tok, "%") {
			return tok
		}
	}
	return NA
}

// listening reports whether a netstat/ss excerpt shows a LISTEN socket.
func listening(n node) bool { return strings.Contains(n.text(), "LISTEN") }

func listenState(n node) string {
	if listening(n) {
		return "LISTENING"
	}
	return "NOT LISTENING"
}
