package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hamed0406/checkhub/internal/domain"
	apimw "github.com/hamed0406/checkhub/internal/httpapi/middleware"
	"github.com/hamed0406/checkhub/internal/ingest"
	"github.com/hamed0406/checkhub/internal/notify"
	"github.com/hamed0406/checkhub/internal/report"
)

const (
	maxBody         = 8 << 20
	savedMessage    = "점검 결과가 성공적으로 저장되었습니다"
	serviceMessage  = "Ansible 점검 결과 수집 API 서버"
	serviceVersion  = "1.0.0"
	defaultWASLimit = 1000
)

type Server struct {
	Logger    *zap.Logger
	Ingest    *ingest.Service
	Reports   *report.Service
	Hub       *notify.Hub
	ReportDir string
	Now       func() time.Time

	upgrader websocket.Upgrader
}

func NewServer(l *zap.Logger, in *ingest.Service, rep *report.Service, hub *notify.Hub, reportDir string) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{
		Logger:    l,
		Ingest:    in,
		Reports:   rep,
		Hub:       hub,
		ReportDir: reportDir,
		Now:       time.Now,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router mounts every route twice: at the root and under /api.
func (s *Server) Router(keys apimw.Keys, origins []string, pubRPM, pubBurst, admRPM, admBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)
	r.Use(corsHandler(origins))

	g := guards{
		read:  chi.Chain(apimw.RequireAny(keys), apimw.RateLimit(pubRPM, pubBurst)),
		write: chi.Chain(apimw.RequireAdmin(keys), apimw.RateLimit(admRPM, admBurst)),
	}

	r.Get("/", s.handleIndex)
	r.Group(func(r chi.Router) { s.routes(r, g) })
	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.handleIndex)
		s.routes(r, g)
	})
	return r
}

type guards struct {
	read, write chi.Middlewares
}

func (s *Server) routes(r chi.Router, g guards) {
	r.Get("/health", s.handleHealth)

	r.With(g.write...).Post("/checks", s.handleSave)
	r.With(g.read...).Get("/checks", s.handleList)
	r.With(g.read...).Get("/db-checks/data", s.handleFamily(domain.FamilyDB, report.DefaultLimit))
	r.With(g.read...).Get("/os-checks/data", s.handleFamily(domain.FamilyOS, report.DefaultLimit))
	r.With(g.read...).Get("/was-checks/data", s.handleFamily(domain.FamilyWAS, defaultWASLimit))
	r.With(g.read...).Get("/ws", s.handleWS)

	r.Get("/db-checks/report", s.handlePage("report_template.html"))
	r.Get("/os-checks/report", s.handlePage("os_report_template.html"))
	r.Get("/was-checks/report", s.handlePage("was_report_template.html"))
	r.Get("/report", s.handlePage("unified_report_template.html"))
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Logger.Info("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) stamp() string { return s.Now().Format(time.RFC3339Nano) }

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": serviceMessage,
		"version": serviceVersion,
		"endpoints": map[string]string{
			"POST /api/checks":           "점검 결과 저장",
			"GET /api/checks":            "점검 결과 조회",
			"GET /api/health":            "서버 상태 확인",
			"GET /api/db-checks/report":  "DB 점검 결과 리포트 (HTML)",
			"GET /api/os-checks/report":  "OS 점검 결과 리포트 (HTML)",
			"GET /api/was-checks/report": "WAS 점검 결과 리포트 (HTML)",
			"GET /api/report":            "통합 점검 결과 리포트 (HTML)",
			"GET /ws":                    "실시간 업데이트 (WebSocket)",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "timestamp": s.stamp()})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		writeError(w, s.Logger, &domain.ValidationError{Field: "body", Reason: "invalid JSON: " + err.Error()})
		return
	}
	rec, err := s.Ingest.Ingest(r.Context(), payload)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    savedMessage,
		"id":         rec.ID,
		"check_type": rec.CheckType,
		"hostname":   rec.Hostname,
		"check_time": rec.CheckTime,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if raw := q.Get("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, s.Logger, &domain.ValidationError{Field: "id", Reason: "must be an integer"})
			return
		}
		rec, err := s.Reports.ListByID(r.Context(), id)
		if errors.Is(err, domain.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, fmt.Sprintf("ID %d에 해당하는 점검 결과를 찾을 수 없습니다.", id))
			return
		}
		if err != nil {
			writeError(w, s.Logger, err)
			return
		}
		writeList(w, []*domain.CheckRecord{rec})
		return
	}

	limit, err := limitParam(r, report.DefaultLimit)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	f := domain.Filter{CheckType: q.Get("check_type"), Hostname: q.Get("hostname"), Checker: q.Get("checker")}
	recs, err := s.Reports.ListByType(r.Context(), f, limit)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeList(w, recs)
}

func (s *Server) handleFamily(fam domain.Family, def int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := limitParam(r, def)
		if err != nil {
			writeError(w, s.Logger, err)
			return
		}
		rows, err := s.Reports.AggregateFamily(r.Context(), fam, limit)
		if err != nil {
			writeError(w, s.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(rows), "results": rows})
	}
}

// handlePage serves a report template verbatim. The pages fetch their data
// from the JSON endpoints, so nothing is rendered server side.
func (s *Server) handlePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile(filepath.Join(s.ReportDir, name))
		if err != nil {
			s.Logger.Error("report_template", zap.String("file", name), zap.Error(err))
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, errorPage, html.EscapeString(err.Error()))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(b)
	}
}

const errorPage = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>오류</title>
</head>
<body>
    <h1>오류 발생</h1>
    <p>%s</p>
</body>
</html>
`

func limitParam(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &domain.ValidationError{Field: "limit", Reason: "must be a positive integer"}
	}
	return n, nil
}

func writeList(w http.ResponseWriter, recs []*domain.CheckRecord) {
	if recs == nil {
		recs = []*domain.CheckRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(recs), "results": recs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	apimw.WriteDetail(w, status, detail)
}

// writeError maps the domain error taxonomy onto status codes.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeDetail(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeDetail(w, http.StatusNotFound, err.Error())
	default:
		log.Error("request_failed", zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "점검 결과 처리 중 오류 발생: "+err.Error())
	}
}
