package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/irbind/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Conn     string // optional - filter to one connection
}

// TraceExchange is one journaled message in the timeline.
type TraceExchange struct {
	Seq       int64  `json:"seq"`
	Direction string `json:"direction"`
	Protocol  string `json:"protocol"`
	Method    string `json:"method"`
	Ordinal   uint64 `json:"ordinal"`
	Txid      uint32 `json:"txid"`
	Payload   string `json:"payload"`
}

// TraceResult is the structured trace output.
type TraceResult struct {
	Connections []string        `json:"connections,omitempty"`
	Conn        string          `json:"conn,omitempty"`
	Exchanges   []TraceExchange `json:"exchanges,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Read an exchange journal",
		Long: `Read a serving loop's exchange journal.

Without --conn the distinct connection ids are listed; with --conn the
connection's exchanges are printed in sequence order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "irbind.db", "journal database path")
	cmd.Flags().StringVar(&opts.Conn, "conn", "", "connection id to trace")
	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	j, err := journal.Open(opts.Database)
	if err != nil {
		if ferr := formatter.Error(ErrCodeJournal, err.Error(), nil); ferr != nil {
			return ferr
		}
		return &ExitError{Code: ExitCommandError, Message: "journal unavailable", Err: err}
	}
	defer j.Close()
	ctx := cmd.Context()

	if opts.Conn == "" {
		conns, err := j.Connections(ctx)
		if err != nil {
			return &ExitError{Code: ExitCommandError, Message: "journal read failed", Err: err}
		}
		result := TraceResult{Connections: conns}
		if formatter.Format == "json" {
			return formatter.Success(result)
		}
		if len(conns) == 0 {
			return formatter.Successf(result, "no connections recorded")
		}
		return formatter.Successf(result, "%s", strings.Join(conns, "\n"))
	}

	exchanges, err := j.Exchanges(ctx, opts.Conn)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "journal read failed", Err: err}
	}
	if len(exchanges) == 0 {
		msg := fmt.Sprintf("no exchanges recorded for connection %s", opts.Conn)
		if ferr := formatter.Error(ErrCodeNotFound, msg, nil); ferr != nil {
			return ferr
		}
		return &ExitError{Code: ExitFailure, Message: msg}
	}

	result := TraceResult{Conn: opts.Conn}
	for _, ex := range exchanges {
		result.Exchanges = append(result.Exchanges, TraceExchange{
			Seq:       ex.Seq,
			Direction: ex.Direction,
			Protocol:  ex.Protocol,
			Method:    ex.Method,
			Ordinal:   ex.Ordinal,
			Txid:      ex.Txid,
			Payload:   ex.Payload,
		})
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	var b strings.Builder
	for _, ex := range result.Exchanges {
		fmt.Fprintf(&b, "%4d %-4s %s.%s txid=%d %s\n", ex.Seq, ex.Direction, ex.Protocol, ex.Method, ex.Txid, ex.Payload)
	}
	return formatter.Successf(result, "%s", strings.TrimRight(b.String(), "\n"))
}
