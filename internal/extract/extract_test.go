package extract

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hamed0406/checkhub/internal/domain"
)

func record(checkType string, results map[string]any) *domain.CheckRecord {
	return &domain.CheckRecord{
		ID:        7,
		CheckType: checkType,
		Hostname:  "h1",
		CheckTime: "2026-01-09T01:58:51Z",
		Checker:   "alice",
		Status:    "success",
		Results:   results,
	}
}

// pick returns the listed columns of s.
func pick(s Summary, cols ...string) map[string]string {
	out := make(map[string]string, len(cols))
	for _, c := range cols {
		v, ok := s.Get(c)
		if !ok {
			v = "<missing>"
		}
		out[c] = v
	}
	return out
}

func TestNormalize_CommonFields(t *testing.T) {
	s := Normalize(record("os", map[string]any{}))

	want := map[string]string{
		ColCheckType: "OS",
		ColHostname:  "h1",
		ColCheckTime: "2026. 1. 9. 오전 10:58:51",
		ColRawTime:   "2026-01-09T01:58:51Z",
		ColChecker:   "alice",
		ColStatus:    "success",
	}
	if diff := cmp.Diff(want, pick(s, commonColumns...)); diff != "" {
		t.Fatalf("common fields (-want +got):\n%s", diff)
	}
	if s.ID != 7 {
		t.Fatalf("id = %d", s.ID)
	}
}

func TestNormalize_OSDiskPressure(t *testing.T) {
	s := Normalize(record("os", map[string]any{
		"disk": map[string]any{"all": "Filesystem Size Use% \n/dev/sda1 10G 95% /"},
	}))
	if got, _ := s.Get("디스크사용현황"); got != "1개 디스크 70% 이상" {
		t.Fatalf("disk summary = %q", got)
	}
}

func TestNormalize_OSNTPNotConfigured(t *testing.T) {
	s := Normalize(record("os", map[string]any{
		"ntp": map[string]any{"status": "NTP not configured"},
	}))
	if got, _ := s.Get("NTP동기화"); got != "미설정" {
		t.Fatalf("ntp = %q", got)
	}
}

func TestNormalize_OSFull(t *testing.T) {
	s := Normalize(record("os", map[string]any{
		"cpu": map[string]any{
			"model":         "Intel(R) Xeon(R) Gold 6230R CPU @ 2.10GHz with a very long suffix",
			"top_processes": "PID CMD\n1 systemd",
		},
		"memory": map[string]any{
			"swap":          "Swap: 2.0Gi 0B 2.0Gi",
			"top_processes": "",
		},
		"disk": map[string]any{
			"root_usage_percent": "42",
			"all":                "Filesystem Size Used Avail Use% Mounted\n/dev/sda1 10G 5G 5G 50% /\n/dev/sdb1 10G 8G 2G 80% /data\n/dev/sdc1 10G 9G 1G 91% /logs",
		},
		"network": map[string]any{"ping_result": "3 packets transmitted, 3 received, 0% packet loss"},
		"ntp":     map[string]any{"status": "^* time.example 2 6 377"},
	}))

	want := map[string]string{
		"설치확인":      "N/A",
		"CPU모델명":    "Intel(R) Xeon(R) Gold 6230R CPU @ 2.10GHz with a v",
		"Swap상태":    "2.0Gi / 0B",
		"루트디스크사용률":  "42%",
		"디스크사용현황":   "2개 디스크 70% 이상",
		"네트워크통신":    "✓ 연결됨",
		"NTP동기화":    "✓ 동기화됨",
		"CPU상위프로세스": "있음",
		"메모리상위프로세스": "N/A",
		"데이터베이스수":   "N/A",
	}
	got := pick(s, "설치확인", "CPU모델명", "Swap상태", "루트디스크사용률", "디스크사용현황", "네트워크통신",
		"NTP동기화", "CPU상위프로세스", "메모리상위프로세스", "데이터베이스수")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("os summary (-want +got):\n%s", diff)
	}
}

func TestNormalize_MariaDB(t *testing.T) {
	s := Normalize(record("mariadb", map[string]any{
		"installation":   map[string]any{"installed": "INSTALLED\nextra", "base_directory": "/usr/local/mysql"},
		"service_status": map[string]any{"active": "active", "substate": "running"},
		"listener":       "tcp 0 0 0.0.0.0:3306 0.0.0.0:* LISTEN",
		"os_resources": map[string]any{
			"memory": map[string]any{
				"detail":        "              total        used        free      shared  buff/cache   available\nMem:           15Gi       3.1Gi       8.0Gi       1.0Mi       4.2Gi        12Gi",
				"usage_percent": "20.6",
			},
			"cpu": map[string]any{
				"detail":        "top - 10:00\n%Cpu(s):  1.2 us,  0.3 sy",
				"usage_percent": json.Number("1.5"),
			},
			"process_count":     json.Number("3"),
			"cpu_top_processes": "mysqld 1.2",
		},
		"db_internal": map[string]any{
			"innodb_buffer_pool":     "innodb_buffer_pool_size\t134217728",
			"log_bin":                "log_bin\tON",
			"tablespace":             "information_schema 0.2MB\nmysql 2.1MB",
			"max_connections":        " 151 ",
			"active_sessions":        json.Number("4"),
			"db_connection_status":   "CONNECTED",
			"mariadb_process":        "NOT_RUNNING",
			"online_backup_possible": "POSSIBLE",
		},
		"database":          map[string]any{"db_count": "0", "db_list": "  "},
		"filesystem_usage":  map[string]any{"db_engine": "/dev/sdd       1007G  4.2G  952G   1% /", "archive_log": "archive dir not found"},
		"os_basics":         map[string]any{"network_ping_result": "2 packets transmitted, 0 received"},
		"directory_structure": "datadir present",
	}))

	want := map[string]string{
		"설치확인":        "✓",
		"설치경로":        "/usr/local/mysql",
		"디렉토리구조":      "있음",
		"파일시스템":       "없음",
		"서비스상태":       "active/running",
		"리스너(MariaDB)": "LISTENING",
		"DB엔진파일시스템":   "/dev/sdd 1% /",
		"아카이브로그파일시스템": "N/A",
		"메모리(Total)":   "15Gi",
		"메모리(Used)":    "3.1Gi",
		"메모리(Available)": "12Gi",
		"메모리":         "15Gi / 12Gi",
		"메모리사용률":      "20.6",
		"CPU사용률":      "(s):  1.2 us,  0.3 sy",
		"CPU":         "1.5",
		"프로세스수":       "3",
		"InnoDB버퍼풀":    "134217728",
		"바이너리로그":      "ON",
		"테이블스페이스":     "2개 DB | information_schema 0.2MB...",
		"데이터베이스수":     "0 (사용자 DB 없음)",
		"데이터베이스목록":    "없음",
		"최대연결수":       "151",
		"활성세션수":       "4",
		"DB접속상태":      "✓ 연결됨",
		"관리프로세스":      "✗ 중지됨",
		"온라인백업가능":     "가능",
		"CPU상위프로세스":   "있음",
		"네트워크통신":      "✗ 연결실패",
		"리스너(PostgreSQL)": "N/A",
		"브로커상태":       "N/A",
	}
	got := pick(s, keys(want)...)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mariadb summary (-want +got):\n%s", diff)
	}
}

func TestNormalize_DBCountAsymmetry(t *testing.T) {
	cases := map[string]string{"0": "0 (사용자 DB 없음)", "": "", " 3 ": "3"}
	for in, want := range cases {
		s := Normalize(record("postgresql", map[string]any{"database": map[string]any{"db_count": in}}))
		if got, _ := s.Get("데이터베이스수"); got != want {
			t.Errorf("db_count %q -> %q, want %q", in, got, want)
		}
	}
	s := Normalize(record("postgresql", map[string]any{}))
	if got, _ := s.Get("데이터베이스수"); got != "N/A" {
		t.Errorf("missing db_count -> %q", got)
	}
}

func TestNormalize_PostgreSQL(t *testing.T) {
	s := Normalize(record("postgresql", map[string]any{
		"listener":      map[string]any{"port_5432": "LISTEN 0 244 127.0.0.1:5432"},
		"db_connection": map[string]any{"status": "NO_CONNECTIONS", "session_detail": "a\n\nb\nc"},
		"postgres_process": "RUNNING",
		"db_parameters": map[string]any{"shared_buffers": "128MB ", "max_connections": json.Number("100")},
		"wal":           map[string]any{"archive_mode": "off", "online_backup_possible": "NOT POSSIBLE", "wal_size": " 16MB"},
		"tablespace":    map[string]any{"usage": "pg_default 30MB"},
		"filesystem_usage": map[string]any{
			"db_engine":     "/dev/sda1 50G 17G 33G 34% /var/lib/pgsql",
			"usage_over_70": "",
		},
		"os_resources": map[string]any{
			"memory": "              total used free\nMem: 7.6Gi 1.2Gi 5Gi",
			"cpu":    map[string]any{"detail": "Cpu(s): 3.0 us", "usage_percent": "3.0"},
		},
	}))

	want := map[string]string{
		"리스너(PostgreSQL)": "LISTENING (localhost)",
		"DB접속상태":         "✗ 연결실패",
		"활성세션수":          "3",
		"관리프로세스":         "✓ 실행중",
		"공유버퍼":           "128MB",
		"최대연결수":          "100",
		"아카이브모드":         "off",
		"온라인백업가능":        "불가능",
		"WAL크기":          "16MB",
		"테이블스페이스":        "1개 | pg_default 30MB...",
		"DB엔진파일시스템":      "34%",
		"파일시스템(70%초과)":   "정상",
		"메모리":            "7.6Gi / 1.2Gi",
		"CPU":            "Cpu(s): 3.0 us",
		"CPU사용률":         "3.0",
		"InnoDB버퍼풀":      "N/A",
	}
	if diff := cmp.Diff(want, pick(s, keys(want)...)); diff != "" {
		t.Fatalf("postgresql summary (-want +got):\n%s", diff)
	}
}

func TestNormalize_Cubrid(t *testing.T) {
	s := Normalize(record("cubrid", map[string]any{
		"installation":   map[string]any{"home_exists": true, "bin_exists": "yes", "cubrid_home": "/home/cubrid/CUBRID"},
		"service_status": map[string]any{"service": "cubrid master is running.", "server": "Server demodb is not running", "broker": "broker1 inactive"},
		"processes":      map[string]any{"broker_count": json.Number("2"), "total_proc_count": "11", "admin_proc": false},
		"database":       map[string]any{"db_list": "demodb testdb  sales"},
		"os_resources":   map[string]any{"cpu_top_processes": "", "cpu_usage_top": "cub_server 3.0"},
		"tablespace":     map[string]any{"spacedb_info": "Space description"},
		"ha":             map[string]any{"ha_status": ""},
	}))

	want := map[string]string{
		"설치확인":      "✓",
		"설치경로":      "/home/cubrid/CUBRID",
		"서비스상태":     "RUNNING",
		"서버상태":      "STOPPED",
		"브로커상태":     "STOPPED",
		"브로커개수":     "2",
		"프로세스수":     "11",
		"관리프로세스":    "없음",
		"데이터베이스수":   "3",
		"데이터베이스목록":  "demodb testdb  sales",
		"CPU상위프로세스": "있음",
		"테이블스페이스":   "있음",
		"NCIA파일시스템":  "없음",
		"HA상태":      "미구성",
		"리스너(MariaDB)": "N/A",
	}
	if diff := cmp.Diff(want, pick(s, keys(want)...)); diff != "" {
		t.Fatalf("cubrid summary (-want +got):\n%s", diff)
	}
}

func TestCubridState(t *testing.T) {
	cases := []struct {
		in     string
		broker bool
		want   string
	}{
		{"", false, StateStopped},
		{"cubrid master is running", false, StateRunning},
		{"master is not running", false, StateStopped},
		{"failed to start: running lock", false, StateError},
		{"Error: access denied", true, StateError},
		{"stopped", false, StateStopped},
		{"status unknown", false, StateUnknown},
		{"weird output", false, StateStopped},
		{"broker1 ACTIVE", true, StateRunning},
		{"broker1 ACTIVE", false, StateStopped},
		{"broker1 inactive", true, StateStopped},
		{"broker active but not running", true, StateStopped},
	}
	for _, tc := range cases {
		if got := CubridState(tc.in, tc.broker); got != tc.want {
			t.Errorf("CubridState(%q, %v) = %q, want %q", tc.in, tc.broker, got, tc.want)
		}
	}
}

func TestNormalize_WAS(t *testing.T) {
	results := map[string]any{
		"installation":   map[string]any{"installed": "installed", "catalina_home": "/opt/tomcat/apache-tomcat-9.0.85/with/a/really/long/path"},
		"service_status": map[string]any{"active": "active"},
		"listener":       map[string]any{"port_8080": "LISTEN *:8080", "port_8005": ""},
		"os_resources": map[string]any{
			"memory":        map[string]any{"detail": "Mem: 7.6Gi", "usage_percent": "40"},
			"cpu":           "Cpu(s): 5.0 us",
			"process_count": json.Number("1"),
		},
		"process":      map[string]any{"running": "yes"},
		"applications": map[string]any{"app_count": json.Number("3"), "deployed_apps": "ROOT manager host-manager docs examples extra extra extra\nsecond"},
		"filesystem_usage": map[string]any{
			"catalina_home": "/dev/sda1 50G 20G 30G 40% /opt",
			"logs":          "not a df line",
		},
		"directory_structure": "bin conf logs",
		"configuration":       map[string]any{"server_xml": "server.xml not found", "java_opts": "-Xms512m -Xmx1024m", "max_heap": "1024m"},
		"logs":                map[string]any{"catalina_log": "/opt/tomcat/logs/catalina.out", "access_log_error_count": json.Number("12")},
		"script":              map[string]any{"startup_script_date": "2025-11-02"},
	}
	s := Normalize(record("tomcat", results))

	want := map[string]string{
		"점검유형":                  "TOMCAT",
		"설치확인":                  "✓",
		"설치경로":                  "/opt/tomcat/apache-tomcat-9.0.85/with/a/",
		"서비스상태":                 "active",
		"리스너(8080)":              "LISTENING",
		"리스너(8005)":              "NOT LISTENING",
		"리스너(8009)":              "NOT LISTENING",
		"메모리(Total)":            "Mem: 7.6Gi",
		"메모리사용률":                "40",
		"CPU":                   "Cpu(s): 5.0 us",
		"CPU사용률":                "N/A",
		"관리프로세스":                "실행중",
		"프로세스수":                 "1",
		"애플리케이션수":               "3",
		"애플리케이션목록":              "ROOT manager host-manager docs examples extra extr...",
		"CATALINA_HOME파일시스템":    "40%",
		"CATALINA_BASE파일시스템":    "N/A",
		"로그파일시스템":               "N/A",
		"디렉토리구조":                "있음",
		"파일시스템":                 "있음",
		"server.xml":            "없음",
		"JAVA_OPTS":             "-Xms512m -Xmx1024m",
		"Max_Heap":              "1024m",
		"catalina.out":          "있음",
		"error.log":             "N/A",
		"접속로그에러수":               "12",
		"기동스크립트수정일":             "2025-11-02",
		"데이터베이스수":               "N/A",
		"서버상태":                  "N/A",
		"HA상태":                  "N/A",
	}
	if diff := cmp.Diff(want, pick(s, keys(want)...)); diff != "" {
		t.Fatalf("was summary (-want +got):\n%s", diff)
	}

	was := Normalize(record("was", results))
	if diff := cmp.Diff(s.Fields["애플리케이션목록"], was.Fields["애플리케이션목록"]); diff != "" {
		t.Fatalf("was and tomcat must render alike: %s", diff)
	}
}

func TestNetworkStatus(t *testing.T) {
	cases := []struct {
		in   any
		os   bool
		want string
	}{
		{nil, false, "N/A"},
		{"", true, "N/A"},
		{"4 packets transmitted, 4 received, 0% packet loss", false, "✓ 연결됨"},
		{"3 packets transmitted, 2 received, 33% packet loss", false, "✓ 연결됨"},
		{"4 packets transmitted, 0 received, 100% packet loss", false, "✓ 연결됨"},
		{"2 packets transmitted, 0 received", false, "✗ 연결실패"},
		{"ping: unknown host", false, "✓ 연결됨"},
		{"4 packets transmitted, 0 received, 100% packet loss", true, "✓ 연결됨"},
		{"3 packets transmitted, 2 received, 33% packet loss", true, "✗ 연결실패"},
		{"ping: unknown host", true, "ping: unknown host"},
	}
	for _, tc := range cases {
		if got := networkStatus(node{v: tc.in}, tc.os); got != tc.want {
			t.Errorf("networkStatus(%v, os=%v) = %q, want %q", tc.in, tc.os, got, tc.want)
		}
	}
}

func TestNormalize_PartialLossEngineHostsStayConnected(t *testing.T) {
	ping := "3 packets transmitted, 2 received, 33% packet loss"
	for _, ct := range []string{"mariadb", "postgresql", "cubrid", "was", "tomcat"} {
		got := Normalize(record(ct, map[string]any{
			"os_basics": map[string]any{"network_ping_result": ping},
		}))
		if v, _ := got.Get("네트워크통신"); v != "✓ 연결됨" {
			t.Errorf("%s: network = %q", ct, v)
		}
	}

	osRec := Normalize(record("os", map[string]any{
		"network": map[string]any{"ping_result": "4 packets transmitted, 0 received, 100% packet loss"},
	}))
	if v, _ := osRec.Get("네트워크통신"); v != "✓ 연결됨" {
		t.Errorf("os: network = %q", v)
	}
}

// Every column of the record's tab is populated whatever the payload looks like.
func TestNormalize_Total(t *testing.T) {
	payloads := []map[string]any{
		nil,
		{},
		{"os_basics": "oops", "installation": []any{1, 2}, "database": json.Number("5")},
		{
			"cpu": json.Number("1"), "memory": "x", "disk": map[string]any{"all": json.Number("3")},
			"os_resources": map[string]any{"memory": map[string]any{"detail": json.Number("1")}, "cpu": []any{}},
			"db_internal": map[string]any{"innodb_buffer_pool": "\t", "tablespace": "\n"},
			"service_status": "down", "listener": nil, "filesystem_usage": "n/a",
			"applications": map[string]any{"deployed_apps": "\n"},
		},
	}
	for _, typ := range []string{"os", "mariadb", "postgresql", "cubrid", "was", "tomcat"} {
		for i, p := range payloads {
			s := Normalize(record(typ, p))
			cols := Columns(domain.FamilyOf(typ))
			if len(s.Fields) != len(cols) {
				t.Fatalf("%s payload %d: %d fields, want %d", typ, i, len(s.Fields), len(cols))
			}
			for _, c := range cols {
				if _, ok := s.Fields[c]; !ok {
					t.Fatalf("%s payload %d: column %q missing", typ, i, c)
				}
			}
		}
	}
}

func TestNormalize_UnknownTypeCarriesCommonFields(t *testing.T) {
	s := Normalize(record("redis", map[string]any{"x": "y"}))
	if diff := cmp.Diff(commonColumns, s.Columns()); diff != "" {
		t.Fatalf("columns (-want +got):\n%s", diff)
	}
	if got, _ := s.Get(ColCheckType); got != "REDIS" {
		t.Fatalf("check type = %q", got)
	}
	if Supported("redis") || !Supported("tomcat") {
		t.Fatalf("Supported reports wrong registry")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	r := record("mariadb", map[string]any{
		"os_basics": map[string]any{"all_disk_usage": "h\n/dev/a 1G 75% /"},
		"database":  map[string]any{"db_list": strings.Repeat("db ", 30)},
	})
	before, _ := json.Marshal(r)

	a, err := json.Marshal(Normalize(r))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, _ := json.Marshal(Normalize(r))
	if !bytes.Equal(a, b) {
		t.Fatalf("renders differ:\n%s\n%s", a, b)
	}
	after, _ := json.Marshal(r)
	if !bytes.Equal(before, after) {
		t.Fatalf("Normalize mutated the record")
	}
}

func TestSummary_MarshalJSON(t *testing.T) {
	s := Normalize(record("os", map[string]any{"ntp": map[string]any{"status": "*"}}))
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.HasPrefix(b, []byte(`{"id":7,"점검유형":"OS",`)) {
		t.Fatalf("unexpected prefix: %s", b)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["NTP동기화"] != "✓ 동기화됨" {
		t.Fatalf("ntp = %v", out["NTP동기화"])
	}
	res, ok := out["results"].(map[string]any)
	if !ok || res["ntp"] == nil {
		t.Fatalf("raw results not carried: %v", out["results"])
	}
}

func TestSheetDeriveRecovers(t *testing.T) {
	s := newSheet()
	s.derive("a", "default", func() string {
		var parts []string
		return parts[3]
	})
	s.derive("b", "x", func() string { return "ok" })
	if s.fields["a"] != "default" || s.fields["b"] != "ok" {
		t.Fatalf("fields = %v", s.fields)
	}
}

func TestClipCountsRunes(t *testing.T) {
	if got := clip("가나다라마", 3); got != "가나다" {
		t.Fatalf("clip = %q", got)
	}
	if got := clip("abc", 10); got != "abc" {
		t.Fatalf("clip = %q", got)
	}
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
