package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notectl/notectl-go/model"
)

func newInspectCmd(opts *rootOptions) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Dump a document's block tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(args)
			if err != nil {
				return err
			}
			ed, err := openEditor(opts)
			if err != nil {
				return err
			}
			defer ed.Destroy()
			if err := load(ed, from, input); err != nil {
				return err
			}
			st := ed.State()
			fmt.Fprintf(cmd.OutOrStdout(), "document v%d, %d top-level blocks\n",
				st.Doc.Version, len(st.Doc.Children))
			for _, b := range st.Doc.Children {
				dumpBlock(cmd, st.Registry(), b, 0)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "json", "input format: json, html or markdown")
	return cmd
}

func dumpBlock(cmd *cobra.Command, reg *model.Registry, b *model.Block, depth int) {
	indent := strings.Repeat("  ", depth)
	desc := b.Type
	if len(b.Attrs) > 0 {
		desc += fmt.Sprintf(" %v", b.Attrs)
	}
	if len(b.Inline) > 0 {
		desc += fmt.Sprintf(" %q", model.BlockText(reg, b))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s%s (%s)\n", indent, desc, b.ID)
	for _, child := range b.Children {
		dumpBlock(cmd, reg, child, depth+1)
	}
}
