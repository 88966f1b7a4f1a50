package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jv92admin/fpltools/backend"
	"github.com/jv92admin/fpltools/exec"
	"github.com/jv92admin/fpltools/server"
)

// errRunFailed is returned when a script ran but reported an error, after
// the envelope has been printed.
var errRunFailed = errors.New("script failed")

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:           "fplbi",
		Short:         "Run FPL analysis scripts against tabular data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $FPLTOOLS_CONFIG or ./fpltools.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		executeCmd(a),
		queryCmd(a),
		tablesCmd(a),
		functionsCmd(a),
		serveCmd(a),
	)
	return rootCmd
}

func executeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Run a script and print its output, tables and result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := readCode(cmd, a.stdin)
			if err != nil {
				return err
			}
			tables, _ := cmd.Flags().GetStringArray("table")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			asJSON, _ := cmd.Flags().GetBool("json")
			plot, _ := cmd.Flags().GetBool("plot")
			title, _ := cmd.Flags().GetString("title")

			req := exec.Request{Code: src, Tables: tables, Timeout: timeout, Title: title}
			run := a.x.Analyze
			if plot {
				run = a.x.Plot
			}
			env, err := run(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !plot {
				if err := a.x.Cleanup(env); err != nil {
					a.logger.Warn("scratch cleanup failed", "dir", env.ScratchDir, "error", err)
				}
			}

			if asJSON {
				err = writeJSON(a.stdout, env)
			} else {
				writeEnvelope(a.stdout, env)
			}
			if err != nil {
				return err
			}
			if !env.OK() {
				return errRunFailed
			}
			return nil
		},
	}
	cmd.Flags().String("code", "", "script source")
	cmd.Flags().String("file", "", "read the script from a file")
	cmd.Flags().StringArray("table", nil, "table to bind as df_<table> (repeatable)")
	cmd.Flags().Duration("timeout", 0, "run timeout (default from config)")
	cmd.Flags().Bool("json", false, "print the response envelope as JSON")
	cmd.Flags().Bool("plot", false, "expect charts and keep the chart files")
	cmd.Flags().String("title", "", "chart title with --plot")
	cmd.MarkFlagsMutuallyExclusive("code", "file")
	return cmd
}

// readCode takes the script from --code, --file or stdin, in that order.
func readCode(cmd *cobra.Command, stdin io.Reader) (string, error) {
	if src, _ := cmd.Flags().GetString("code"); src != "" {
		return src, nil
	}
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read script: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read script from stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("no script: use --code, --file or stdin")
	}
	return string(data), nil
}

func queryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Load a table with filters and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, _ := cmd.Flags().GetStringArray("filter")
			columns, _ := cmd.Flags().GetStringSlice("columns")
			order, _ := cmd.Flags().GetString("order")
			desc, _ := cmd.Flags().GetBool("desc")
			limit, _ := cmd.Flags().GetInt("limit")
			asJSON, _ := cmd.Flags().GetBool("json")

			q := backend.Query{Columns: columns, OrderBy: order, Desc: desc, Limit: limit}
			for _, s := range filters {
				f, err := backend.ParseFilter(s)
				if err != nil {
					return err
				}
				q.Filters = append(q.Filters, f)
			}

			t, err := a.x.Load(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(a.stdout, t.JSONRecords())
			}
			fmt.Fprintln(a.stdout, t.Format(-1))
			return nil
		},
	}
	cmd.Flags().StringArray("filter", nil, "filter as field:op:value (repeatable); ops: eq neq gt gte lt lte in ilike is")
	cmd.Flags().StringSlice("columns", nil, "columns to keep")
	cmd.Flags().String("order", "", "column to sort by")
	cmd.Flags().Bool("desc", false, "sort descending")
	cmd.Flags().Int("limit", 0, "maximum rows")
	cmd.Flags().Bool("json", false, "print rows as JSON")
	return cmd
}

func tablesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of every enabled source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables, err := a.x.ListTables(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TABLE\tROWS\tCOLUMNS")
			for _, t := range tables {
				fmt.Fprintf(w, "%s\t%d\t%s\n", t.ID(), t.Rows, strings.Join(t.Columns, ", "))
			}
			return w.Flush()
		},
	}
}

func functionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "functions [query]",
		Short: "List or search the functions available inside scripts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := a.x.Catalog()
			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			if len(args) == 0 {
				for _, fn := range catalog.Functions() {
					fmt.Fprintf(w, "%s\t%s\n", exec.Signature(fn), fn.Summary)
				}
				return w.Flush()
			}

			limit, _ := cmd.Flags().GetInt("limit")
			results, err := catalog.SearchFunctions(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			for _, r := range results {
				sig := r.ID
				if fn, ok := catalog.Function(r.ID); ok {
					sig = exec.Signature(fn)
				}
				fmt.Fprintf(w, "%s\t%s\n", sig, r.ShortDescription)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int("limit", server.DefaultSearchLimit, "maximum search results")
	return cmd
}

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis tools over MCP (streamable HTTP)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.Server
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Addr = addr
			}
			srv, err := server.New(server.Options{
				Exec:          a.x,
				Logger:        a.logger,
				PlotRetention: cfg.PlotRetention,
			})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, cfg)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from config)")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeEnvelope prints a run for a terminal: stdout first, then each table
// preview, the charts, the result and any error or warning.
func writeEnvelope(w io.Writer, env exec.Envelope) {
	if env.Stdout != "" {
		fmt.Fprint(w, env.Stdout)
		if !strings.HasSuffix(env.Stdout, "\n") {
			fmt.Fprintln(w)
		}
	}
	names := make([]string, 0, len(env.Tables))
	for name := range env.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "\n== %s (%d rows)\n%s\n", name, env.Tables[name].TotalRows, env.Tables[name].Text)
	}
	for _, c := range env.Charts {
		fmt.Fprintf(w, "chart: %s\n", c)
	}
	if env.Result != "" {
		fmt.Fprintf(w, "result: %s\n", env.Result)
	}
	if env.Warning != "" {
		fmt.Fprintf(w, "warning: %s\n", env.Warning)
	}
	if env.Error != "" {
		fmt.Fprintf(w, "error: %s\n", env.Error)
	}
	fmt.Fprintf(w, "(%s)\n", time.Duration(env.DurationMs)*time.Millisecond)
}
