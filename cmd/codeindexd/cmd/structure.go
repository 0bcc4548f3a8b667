package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeindex-dev/codeindex/internal/output"
	"github.com/codeindex-dev/codeindex/pkg/codeindex"
)

func newStructureCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "structure",
		Short: "Print the project's directory tree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			tree, err := svc.GetStructure()
			if err != nil {
				return fmt.Errorf("structure failed: %w", err)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tree)
			}

			out := output.New(cmd.OutOrStdout())
			printTree(out, tree, "")
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output raw JSON")

	return cmd
}

func printTree(out *output.Writer, node codeindex.StructureNode, prefix string) {
	names := make([]string, 0, len(node))
	for name := range node {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		child := node[name]
		if child == nil {
			out.Status("", prefix+name)
			continue
		}
		out.Status("", prefix+name+"/")
		printTree(out, child, prefix+strings.Repeat(" ", 2))
	}
}

func newFindFilesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "find <glob>",
		Short: "List indexed files matching a glob pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			matches, err := svc.FindFiles(args[0])
			if err != nil {
				return fmt.Errorf("find failed: %w", err)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(matches)
			}

			out := output.New(cmd.OutOrStdout())
			for _, m := range matches {
				out.Status("", m)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output raw JSON")

	return cmd
}
