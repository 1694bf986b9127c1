package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-doc-verifier/internal/boq"
	"github.com/a3tai/mcp-doc-verifier/internal/config"
	"github.com/a3tai/mcp-doc-verifier/internal/evidence"
	"github.com/a3tai/mcp-doc-verifier/internal/verifier"
)

// serviceFactory builds the pipeline for a resolved configuration
type serviceFactory func(*config.Config) (*verifier.Service, error)

type app struct {
	out     io.Writer
	build   serviceFactory
	service *verifier.Service
	asJSON  bool
}

func newRootCmd(out io.Writer, build serviceFactory) *cobra.Command {
	a := &app{out: out, build: build}

	root := &cobra.Command{
		Use:           "doc-verify",
		Short:         "Check acceptance-test (uji terima) PDF documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromFlagSet(cmd.Flags())
			if err != nil {
				return err
			}
			// paths on the command line are the user's own
			cfg.Directory = ""
			cfg.Debugf("configuration: %s", cfg.String())

			a.service, err = a.build(cfg)
			return err
		},
	}
	root.SetOut(out)
	config.RegisterFlags(root.PersistentFlags(), config.DefaultConfig())
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "Print results as JSON")

	root.AddCommand(a.checkCmd(), a.boqCmd(), a.evidenceCmd())
	return root
}

func (a *app) checkCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check <file.pdf>",
		Short: "Report which checklist sections appear on which pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis, err := a.service.AnalyzeFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(analysis.Checklist)
			}

			missing := 0
			for _, r := range analysis.Checklist {
				pages := "-"
				if r.Found() {
					pages = joinInts(r.Pages)
				} else {
					missing++
				}
				fmt.Fprintf(a.out, "%-3s  %-45s  %s\n", r.Status, r.Item, pages)
			}
			for _, w := range analysis.Document.Warnings.Errors {
				fmt.Fprintf(a.out, "warning: %s\n", w.Error())
			}
			if strict && missing > 0 {
				return fmt.Errorf("%d checklist item(s) missing", missing)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any checklist item is missing")
	return cmd
}

func (a *app) boqCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boq <file.pdf>",
		Short: "Locate the Bill of Quantity page and read its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis, err := a.service.AnalyzeFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(struct {
					Page int       `json:"page"`
					Rows []boq.Row `json:"rows"`
				}{Page: analysis.BOQPageNumber(), Rows: analysis.AutoRows})
			}

			if !analysis.HasBOQ() {
				fmt.Fprintln(a.out, "BOQ page not found")
				return nil
			}
			fmt.Fprintf(a.out, "BOQ page: %d\n", analysis.BOQPageNumber())
			for _, r := range analysis.AutoRows {
				fmt.Fprintln(a.out, r.String())
			}
			return nil
		},
	}
}

func (a *app) evidenceCmd() *cobra.Command {
	var rowArgs []string
	var outDir string
	cmd := &cobra.Command{
		Use:   "evidence <file.pdf>",
		Short: "List the evidence photo pages of each BOQ designator",
		Long: "List the evidence photo pages of each BOQ designator. Rows default to the ones read\n" +
			"from the BOQ page; pass --row DESIGNATOR=QTY to use verified rows instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis, err := a.service.AnalyzeFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rows := analysis.AutoRows
			if len(rowArgs) > 0 {
				rows = make([]boq.Row, 0, len(rowArgs))
				for _, arg := range rowArgs {
					row, err := boq.ParseRow(arg)
					if err != nil {
						return err
					}
					rows = append(rows, row)
				}
				rows = boq.DedupeDesignators(rows)
			}

			gallery, err := a.service.CollectEvidence(cmd.Context(), analysis, rows)
			if err != nil {
				return err
			}
			if outDir != "" {
				if err := exportGallery(cmd.Context(), gallery, outDir); err != nil {
					return err
				}
			}

			if a.asJSON {
				pages := make(map[string][]int, len(gallery))
				for d := range gallery {
					pages[d] = gallery.PageNumbers(d)
				}
				return a.printJSON(pages)
			}
			for _, r := range rows {
				pages := gallery.PageNumbers(r.Designator)
				switch {
				case !a.service.Labels().Has(r.Designator):
					fmt.Fprintf(a.out, "%s: no caption pattern\n", r.Designator)
				case len(pages) == 0:
					fmt.Fprintf(a.out, "%s: no evidence\n", r.Designator)
				default:
					fmt.Fprintf(a.out, "%s: pages %s\n", r.Designator, joinInts(pages))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&rowArgs, "row", nil, "Verified BOQ row as DESIGNATOR=QTY (repeatable)")
	cmd.Flags().StringVar(&outDir, "out", "", "Write the evidence page images into this directory as PNG")
	return cmd
}

// exportGallery writes one PNG per designator and page
func exportGallery(ctx context.Context, gallery evidence.Gallery, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for designator, pages := range gallery {
		for _, p := range pages {
			if err := ctx.Err(); err != nil {
				return err
			}
			if p.Image == nil {
				continue
			}
			name := fmt.Sprintf("%s_page%03d.png", fileSafe(designator), p.Number)
			if err := imaging.Save(p.Image, filepath.Join(dir, name)); err != nil {
				return fmt.Errorf("failed to write %s: %w", name, err)
			}
		}
	}
	return nil
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}

func (a *app) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ",")
}
