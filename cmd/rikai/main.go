package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/rikai-backend/internal/app"
)

const version = "0.1.0"

var outputFormat string

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rikai",
		Short: "Rikai - adaptive curriculum engine",
		Long: `rikai serves the curriculum API and manages the local curriculum store.
Storage and provider settings come from the environment (KV_BACKEND, OPENAI_API_KEY, ...).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: json, table")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newCreateCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newShowCommand())
	return rootCmd
}

// withApp builds the application for one command and closes it afterwards.
func withApp(ctx context.Context, opts app.Options, fn func(*app.App) error) error {
	a, err := app.New(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
