package extract

import "github.com/hamed0406/checkhub/internal/domain"

// Common columns carried by every summary, after "id".
const (
	ColCheckType = "점검유형"
	ColHostname  = "호스트명"
	ColCheckTime = "점검시간"
	ColRawTime   = "check_time"
	ColChecker   = "담당자"
	ColStatus    = "상태"
)

var commonColumns = []string{ColCheckType, ColHostname, ColCheckTime, ColRawTime, ColChecker, ColStatus}

// The DB tab renders mariadb, postgresql and cubrid rows in one table, so its
// column set is the union of the three engines.
var dbColumns = []string{
	colInstalled, colInstallPath, colDirs, colFilesystem, colService,
	colListenerMariaDB, colListenerPostgres,
	colEngineFS, colArchiveFS, colSyslogFS,
	colMemTotal, colMemUsed, colMemAvail, colMemory, colMemPct, colCPUPct, colCPU, colProcCount,
	colInnoDBPool, colBinlog, colSharedBuffers, colArchiveMode, colWALSize,
	colTablespace, colDBCount, colDBList, colMaxConn, colSessions,
	colConnStatus, colAdminProc, colHA, colBackup,
	colServerState, colBrokerState, colBrokerCount, colNCIAFS,
	colCPUTop, colMemTop,
	colCPUModel, colSwap, colRootDisk, colDiskSummary, colFSOver70, colNetwork, colNTP,
}

var osColumns = []string{
	colInstalled, colInstallPath,
	colCPUModel, colSwap, colRootDisk, colDiskSummary, colNetwork, colNTP,
	colCPUTop, colMemTop,
	colProcCount, colDBCount, colDBList, colTablespace,
}

var wasColumns = []string{
	colInstalled, colInstallPath,
	colCPUModel, colSwap, colRootDisk, colDiskSummary, colNetwork, colNTP,
	colCPUTop, colMemTop,
	colProcCount, colDBCount, colDBList, colTablespace,
	colDirs, colFilesystem, colService,
	colListener8080, colListener8005, colListener8009,
	colMemTotal, colMemPct, colCPU, colCPUPct, colAdminProc,
	colAppCount, colAppList,
	colCatalinaHome, colCatalinaBase, colLogsFS, colTempFS,
	colServerXML, colJavaOpts, colMaxHeap, colCatalinaOut, colErrorLog,
	colAccessErrors, colStartupScript,
	colServerState, colBrokerState, colBrokerCount, colNCIAFS, colHA,
}

// Columns returns the ordered column set of a report tab, common columns
// first. Unknown families only carry the common columns.
func Columns(f domain.Family) []string {
	out := append([]string(nil), commonColumns...)
	switch f {
	case domain.FamilyDB:
		out = append(out, dbColumns...)
	case domain.FamilyOS:
		out = append(out, osColumns...)
	case domain.FamilyWAS:
		out = append(out, wasColumns...)
	}
	return out
}
