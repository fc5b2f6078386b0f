package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/taxoview/pkg/hierarchy"
	"github.com/matzehuels/taxoview/pkg/palette"
)

// treeCommand creates the tree command for printing a bounded tree.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		f     viewFlags
		start string
		end   string
	)

	cmd := &cobra.Command{
		Use:   "tree [dataset]",
		Short: "Print the bounded tree below a root entity",
		Long: `Print the bounded tree below a root entity.

Each entity is shown once, at its shallowest depth. Nodes marked ▸ have
children beyond the depth bound. With --from and --to the tree is rooted at
the common ancestor of both entities and only the path between them stays
open.

The dataset argument may be omitted when the config names a dataset file or
a Neo4j knowledge base.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTree(cmd.Context(), args, f, start, end)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&start, "from", "", "path start entity")
	cmd.Flags().StringVar(&end, "to", "", "path end entity")

	return cmd
}

func (c *CLI) runTree(ctx context.Context, args []string, f viewFlags, start, end string) error {
	f.mode = ""
	l, err := c.loadWithPath(ctx, args, f, start, end)
	if err != nil {
		return err
	}
	defer l.close()

	scale, err := palette.Named(l.opts.Palette)
	if err != nil {
		return err
	}

	printNewline()
	writeTree(stdout, l.view.Tree, scale)
	printNewline()
	printStats(l.eng.Graph().Len(), l.eng.Graph().EdgeCount(), l.view.Tree.Len(), l.cached)
	return nil
}

// writeTree prints t with box-drawing branches. Each label is coloured by
// its path colour, or by depth on scale.
func writeTree(w io.Writer, t *hierarchy.Tree, scale palette.Scale) {
	root := t.Root()
	fmt.Fprintln(w, treeLine(t, root, scale))
	writeChildren(w, t, root.Key, "", scale)
}

func writeChildren(w io.Writer, t *hierarchy.Tree, k hierarchy.Key, prefix string, scale palette.Scale) {
	children := t.Children(k)
	for i, n := range children {
		branch, indent := "├── ", "│   "
		if i == len(children)-1 {
			branch, indent = "└── ", "    "
		}
		fmt.Fprintln(w, StyleDim.Render(prefix+branch)+treeLine(t, n, scale))
		writeChildren(w, t, n.Key, prefix+indent, scale)
	}
}

func treeLine(t *hierarchy.Tree, n *hierarchy.Node, scale palette.Scale) string {
	icon := iconLeaf
	switch {
	case !n.IsLeaf:
		icon = iconOpen
	case n.Expandable:
		icon = iconClosed
	}

	color := n.Color
	if color == "" {
		color = palette.Depth(scale, n.Depth, max(t.MaxDepth(), 1))
	}

	var b strings.Builder
	b.WriteString(swatch(color, icon+" "+n.Label))
	b.WriteString(StyleDim.Render(fmt.Sprintf(" %s", n.ID)))
	if !n.IsLeaf {
		b.WriteString(StyleDim.Render(fmt.Sprintf(" · %d", n.Value)))
	}
	return b.String()
}

// loadWithPath is load with an optional path selection.
func (c *CLI) loadWithPath(ctx context.Context, args []string, f viewFlags, start, end string) (*loaded, error) {
	l, err := c.load(ctx, args, f)
	if err != nil {
		return nil, err
	}
	if start == "" && end == "" {
		return l, nil
	}
	p, err := l.eng.FindPath(start, end)
	if err == nil {
		err = l.eng.SelectPath(l.view, p)
	}
	if err != nil {
		l.close()
		return nil, err
	}
	l.opts.PathStart, l.opts.PathEnd = start, end
	l.eng.Highlight(l.view)
	return l, nil
}
