package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/checkhub/internal/client"
	"github.com/hamed0406/checkhub/internal/config"
	"github.com/hamed0406/checkhub/internal/domain"
	"github.com/hamed0406/checkhub/internal/migrate"
	"github.com/hamed0406/checkhub/internal/repo/dial"
)

type globals struct {
	server  string
	apiKey  string
	verbose bool
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "checkctl",
		Short:         "Operate a checkhub result server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.server, "server", envOr("CHECKHUB_URL", "http://localhost:8000"), "API base URL")
	root.PersistentFlags().StringVar(&g.apiKey, "api-key", os.Getenv("CHECKHUB_API_KEY"), "API key sent as X-API-Key")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log progress to stderr")

	root.AddCommand(
		newSubmitCmd(g),
		newListCmd(g),
		newMigrateCmd(g),
		newPreflightCmd(),
	)
	return root
}

func newSubmitCmd(g *globals) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Post a check report JSON file to the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file required")
			}
			payload, err := readPayload(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			saved, err := client.New(g.server, g.apiKey).Submit(cmd.Context(), payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved id=%d check_type=%s hostname=%s\n", saved.ID, saved.CheckType, saved.Hostname)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `Payload file ("-" for stdin)`)
	return cmd
}

func readPayload(stdin io.Reader, file string) (map[string]any, error) {
	r := stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", file, err)
	}
	return payload, nil
}

func newListCmd(g *globals) *cobra.Command {
	var q client.Query
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored check results, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := client.New(g.server, g.apiKey).List(cmd.Context(), q)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(recs)
			}
			return printRecords(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().StringVar(&q.CheckType, "type", "", "Filter by check_type")
	cmd.Flags().StringVar(&q.Hostname, "host", "", "Filter by hostname")
	cmd.Flags().StringVar(&q.Checker, "checker", "", "Filter by checker")
	cmd.Flags().Int64Var(&q.ID, "id", 0, "Fetch a single record")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "Max records (server default 100)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	return cmd
}

func printRecords(out io.Writer, recs []*domain.CheckRecord) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(out, "No check results.")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tHOST\tCHECKER\tSTATUS\tCHECK_TIME\tCREATED")
	for _, r := range recs {
		created := ""
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.CheckType, r.Hostname, r.Checker, r.Status, r.CheckTime, created)
	}
	return tw.Flush()
}

func newMigrateCmd(g *globals) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy every stored result from one database to another",
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" || to == "" {
				return fmt.Errorf("--from and --to required")
			}
			log := zap.NewNop()
			if g.verbose {
				if l, err := zap.NewDevelopment(); err == nil {
					log = l
				}
			}
			ctx := cmd.Context()
			src, err := dial.Open(ctx, from, log)
			if err != nil {
				return fmt.Errorf("open source: %w", err)
			}
			defer src.Close()
			dst, err := dial.Open(ctx, to, log)
			if err != nil {
				return fmt.Errorf("open destination: %w", err)
			}
			defer dst.Close()

			st, err := migrate.Copy(ctx, src, dst, log)
			fmt.Fprintf(cmd.OutOrStdout(), "copied=%d skipped=%d\n", st.Copied, st.Skipped)
			return err
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Source DATABASE_URL")
	cmd.Flags().StringVar(&to, "to", "", "Destination DATABASE_URL")
	return cmd
}

func newPreflightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Validate the server environment before starting it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return preflight(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}
