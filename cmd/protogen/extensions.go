// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrf7777/protogen-software-sub000/internal/config"
	"github.com/mrf7777/protogen-software-sub000/internal/extensions"
	"github.com/mrf7777/protogen-software-sub000/internal/host"
)

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// CodeCheckFailed is returned by extensions check when a candidate did not load.
const CodeCheckFailed = "EXTENSION_CHECK_FAILED"

func newExtensionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extensions",
		Short: "Inspect installed extensions",
	}
	cmd.AddCommand(newExtensionsListCmd())
	cmd.AddCommand(newExtensionsCheckCmd())
	return cmd
}

func newExtensionsListCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Load every extension and list the ones that loaded",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			summaries, err := loadSummaries(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return writeSummaries(cmd.OutOrStdout(), output, summaries)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format (table, json, yaml)")
	return cmd
}

func newExtensionsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report extension directories that fail to load",
		Long: `Load every extension and report each candidate directory that did not
produce a loaded extension. Exits non-zero when any candidate failed. The
reasons are in the log output.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runCheck(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
}

// withHost loads every extension, runs fn on the registry and unloads.
func withHost(ctx context.Context, cfg config.Config, fn func(*host.Registry) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	loader, err := newLoader(cfg)
	if err != nil {
		return err
	}
	hc := cfg.HostConfig()
	hc.DefaultApp = ""
	hc.CreateUserDataDirs = false
	h := host.New(hc, loader)
	defer func() {
		if err := h.Close(); err != nil {
			slog.Warn("closing extensions failed", "error", err)
		}
	}()
	if err := h.Reload(ctx); err != nil {
		return err
	}
	return fn(h.Registry())
}

func loadSummaries(ctx context.Context, cfg config.Config) ([]host.Summary, error) {
	var out []host.Summary
	err := withHost(ctx, cfg, func(reg *host.Registry) error {
		out = reg.List()
		return nil
	})
	return out, err
}

func writeSummaries(w io.Writer, format string, summaries []host.Summary) error {
	if summaries == nil {
		summaries = []host.Summary{}
	}
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		defer func() { _ = enc.Close() }()
		return enc.Encode(summaries)
	case outputTable:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "KIND\tID\tNAME\tDESCRIPTION\tDIR")
		for _, s := range summaries {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Kind, s.ID, s.Name, s.Description, s.Dir)
		}
		return tw.Flush()
	default:
		return oops.In("cli").With("output", format).
			Hint("use table, json or yaml").Errorf("unknown output format %q", format)
	}
}

// candidateResult is one row of extensions check.
type candidateResult struct {
	Dir string
	ID  string
}

func runCheck(ctx context.Context, w io.Writer, cfg config.Config) error {
	var candidates []string
	for _, root := range cfg.Roots() {
		if root == "" {
			continue
		}
		finder, err := extensions.NewDirectoryFinder(root, nil, cfg.Extensions.Ignore...)
		if err != nil {
			return err
		}
		dirs, err := finder.Candidates()
		if err != nil {
			return err
		}
		candidates = append(candidates, dirs...)
	}

	summaries, err := loadSummaries(ctx, cfg)
	if err != nil {
		return err
	}
	byDir := lo.KeyBy(summaries, func(s host.Summary) string { return s.Dir })
	results := lo.Map(candidates, func(dir string, _ int) candidateResult {
		return candidateResult{Dir: dir, ID: byDir[dir].ID}
	})

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STATUS\tID\tDIR")
	failed := 0
	for _, r := range results {
		if r.ID == "" {
			failed++
			_, _ = fmt.Fprintf(tw, "FAILED\t-\t%s\n", r.Dir)
			continue
		}
		_, _ = fmt.Fprintf(tw, "ok\t%s\t%s\n", r.ID, r.Dir)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return oops.In("cli").Code(CodeCheckFailed).With("failed", failed).
			Errorf("%d of %d extension directories failed to load", failed, len(results))
	}
	return nil
}
