package cli

import (
	"fmt"
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/spf13/cobra"

	"github.com/porticus-lab/go-dom-pdf/internal/pdf"
)

type pageSummary struct {
	Page     int      `json:"page"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Rotation int      `json:"rotation,omitzero"`
	Images   []string `json:"images"`
}

type docSummary struct {
	File    string        `json:"file"`
	Version string        `json:"version"`
	Pages   int           `json:"pages"`
	Details []pageSummary `json:"details"`
}

func newInfoCmd() *cobra.Command {
	var (
		pageRange string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "info [flags] <file.pdf>",
		Short: "Display the version, page sizes and images of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := summarize(args[0], pageRange)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			writeText(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	cmd.Flags().StringVarP(&pageRange, "pages", "p", "", `page range, e.g. "1", "1-5", "1,3,5" (default: all)`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func summarize(path, pageRange string) (*docSummary, error) {
	doc, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	pages, err := doc.Pages()
	if err != nil {
		return nil, fmt.Errorf("reading pages: %w", err)
	}
	indices, err := parsePageRange(pageRange, len(pages))
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	s := &docSummary{File: path, Version: doc.Version(), Pages: len(pages)}
	for _, i := range indices {
		info, err := doc.PageInfo(pages[i])
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		s.Details = append(s.Details, pageSummary{
			Page:     i + 1,
			Width:    info.Width,
			Height:   info.Height,
			Rotation: info.Rotation,
			Images:   info.Images,
		})
	}
	return s, nil
}

func writeJSON(w io.Writer, s *docSummary) error {
	b, err := json.Marshal(s, jsontext.WithIndent("  "))
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

func writeText(w io.Writer, s *docSummary) {
	fmt.Fprintf(w, "File:    %s\n", s.File)
	fmt.Fprintf(w, "Version: PDF-%s\n", s.Version)
	fmt.Fprintf(w, "Pages:   %d\n", s.Pages)
	if len(s.Details) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page dimensions:")
	for _, p := range s.Details {
		fmt.Fprintf(w, "  Page %d: %.0f x %.0f pt, %d image(s)", p.Page, p.Width, p.Height, len(p.Images))
		if p.Rotation != 0 {
			fmt.Fprintf(w, " (rotated %d°)", p.Rotation)
		}
		fmt.Fprintln(w)
	}
}
