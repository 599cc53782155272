package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hamed0406/checkhub/internal/config"
	"github.com/hamed0406/checkhub/internal/repo/dial"
)

var reportTemplates = []string{
	"report_template.html",
	"os_report_template.html",
	"was_report_template.html",
	"unified_report_template.html",
}

var errPreflight = errors.New("preflight failed")

// preflight reports problems in cfg. Warnings go to errOut and never fail;
// any failure makes it return errPreflight.
func preflight(cfg config.Config, out, errOut io.Writer) error {
	failed := false
	fail := func(msg string) {
		failed = true
		fmt.Fprintln(errOut, "✖", msg)
	}
	warn := func(msg string) { fmt.Fprintln(errOut, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(out, "✔", msg) }

	if len(cfg.AdminAPIKeys) == 0 {
		warn("ADMIN_API_KEYS is empty; anyone can POST /checks.")
	}
	if len(cfg.PublicAPIKeys) == 0 && len(cfg.AdminAPIKeys) == 0 {
		warn("no API keys configured; read routes are open.")
	}
	for name, keys := range map[string][]string{"ADMIN_API_KEYS": cfg.AdminAPIKeys, "PUBLIC_API_KEYS": cfg.PublicAPIKeys} {
		for _, k := range keys {
			if strings.ContainsAny(k, " \t") {
				fail(name + " contains a key with spaces.")
			}
		}
	}

	if scheme, err := dial.Scheme(cfg.DatabaseURL); err != nil {
		fail(err.Error())
	} else {
		ok("DATABASE_URL backend=" + scheme)
		if scheme == dial.Memory {
			warn("memory store selected; results are lost on restart.")
		}
	}

	if cfg.Addr == "" {
		fail("API_ADDR is empty.")
	} else {
		ok("API_ADDR=" + cfg.Addr)
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		warn("ALLOWED_ORIGINS is *; any site may call the API from a browser.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	missing := 0
	for _, name := range reportTemplates {
		if _, err := os.Stat(filepath.Join(cfg.ReportDir, name)); err != nil {
			missing++
			warn("report template missing: " + filepath.Join(cfg.ReportDir, name))
		}
	}
	if missing == 0 {
		ok("REPORT_DIR=" + cfg.ReportDir)
	}

	if cfg.SlackWebhook != "" {
		ok("Slack alerts for statuses " + strings.Join(cfg.NotifyStatuses, ","))
	}

	if failed {
		return errPreflight
	}
	ok("preflight passed")
	return nil
}
