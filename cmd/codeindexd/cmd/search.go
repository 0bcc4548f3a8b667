package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/codeindex-dev/codeindex/internal/output"
	"github.com/codeindex-dev/codeindex/internal/search"
)

func newSearchCmd() *cobra.Command {
	var (
		caseSensitive bool
		contextLines  int
		filePattern   string
		fuzzy         bool
		page          int
		pageSize      int
		jsonOutput    bool
	)

	cmd := &cobra.Command{
		Use:   "search <pattern>",
		Short: "Search the indexed project's file contents",
		Long: `Searches file contents via the best available backend (ripgrep, the
silver searcher, or an in-process fallback) and returns a paginated
union of matches.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())
			svc, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			result, err := svc.Search(cmd.Context(), search.Query{
				Pattern:       args[0],
				CaseSensitive: caseSensitive,
				ContextLines:  contextLines,
				FilePattern:   filePattern,
				Fuzzy:         fuzzy,
				Page:          page,
				PageSize:      pageSize,
			})
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			if result.TotalMatches == 0 {
				out.Status("", fmt.Sprintf("No matches for %q", args[0]))
				return nil
			}

			out.Statusf("🔍", "%d matches for %q (page %d/%d):", result.TotalMatches, args[0], result.Page, result.TotalPages)
			out.Newline()

			paths := make([]string, 0, len(result.Matches))
			for p := range result.Matches {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			for _, p := range paths {
				for _, m := range result.Matches[p] {
					out.Status("", fmt.Sprintf("%s:%d: %s", p, m.Line, m.Content))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "Case-sensitive match")
	cmd.Flags().IntVar(&contextLines, "context", 0, "Lines of context around each match")
	cmd.Flags().StringVar(&filePattern, "glob", "", "Restrict search to files matching this glob")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "Fuzzy match")
	cmd.Flags().IntVar(&page, "page", 1, "Result page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 50, "Results per page")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output raw JSON")

	return cmd
}
