package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/notectl/notectl-go/editor"
	"github.com/notectl/notectl-go/markdown"
	"github.com/notectl/notectl-go/model"
)

func newConvertCmd(opts *rootOptions) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a document between json, html and markdown",
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
			out, err := render(ed, to)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "json", "input format: json, html or markdown")
	cmd.Flags().StringVar(&to, "to", "html", "output format: json, html or markdown")
	return cmd
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(os.Stdin)
}

func openEditor(opts *rootOptions) (*editor.Editor, error) {
	cfg, err := opts.editorConfig()
	if err != nil {
		return nil, err
	}
	// Conversion always needs a writable document.
	cfg.ReadOnly = false
	ed := editor.New(
		editor.WithConfig(cfg),
		editor.WithLogger(opts.logger),
	)
	if err := ed.Init(context.Background()); err != nil {
		return nil, err
	}
	return ed, nil
}

func load(ed *editor.Editor, format string, input []byte) error {
	switch format {
	case "json":
		return ed.SetJSON(input)
	case "html":
		return ed.SetHTML(string(input))
	case "markdown", "md":
		doc, err := markdown.Parse(ed.State().Registry(), input)
		if err != nil {
			return err
		}
		raw, err := model.MarshalDocument(doc)
		if err != nil {
			return err
		}
		return ed.SetJSON(raw)
	}
	return fmt.Errorf("unknown input format %q", format)
}

func render(ed *editor.Editor, format string) (string, error) {
	switch format {
	case "json":
		raw, err := ed.GetJSON()
		return string(raw), err
	case "html":
		return ed.GetHTML(), nil
	case "markdown", "md":
		return markdown.Serialize(ed.State().Registry(), ed.State().Doc), nil
	case "text":
		return ed.GetText(), nil
	}
	return "", fmt.Errorf("unknown output format %q", format)
}
