package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/taxoview/pkg/palette"
	"github.com/matzehuels/taxoview/pkg/path"
)

// pathCommand creates the path command for finding the link between two
// entities.
func (c *CLI) pathCommand() *cobra.Command {
	var (
		f       viewFlags
		asJSON  bool
		noSteps bool
	)

	cmd := &cobra.Command{
		Use:   "path <start> <end> [dataset]",
		Short: "Show the path between two entities",
		Long: `Show the path between two entities.

The path climbs from the start entity to the closest common ancestor and
descends to the end entity. Ascent steps are coloured on the ascent scale,
descent steps on the descent scale.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPath(cmd.Context(), args[0], args[1], args[2:], f, asJSON, noSteps)
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the path as JSON")
	cmd.Flags().BoolVar(&noSteps, "no-steps", false, "omit the step table")

	return cmd
}

func (c *CLI) runPath(ctx context.Context, start, end string, args []string, f viewFlags, asJSON, noSteps bool) error {
	l, err := c.load(ctx, args, f)
	if err != nil {
		return err
	}
	defer l.close()

	p, err := l.eng.FindPath(start, end)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}

	ascent, descent, err := c.pathScales()
	if err != nil {
		return err
	}
	colors := p.Colors(ascent, descent)

	printNewline()
	fmt.Fprintln(stdout, formatPath(p, l.eng.Label, colors))
	printNewline()
	if !noSteps {
		writeSteps(stdout, p, l.eng.Label, colors)
		printNewline()
	}
	printDetail("%d up · %d down · pivot %s", p.Up, p.Down, l.eng.Label(p.Pivot()))
	return nil
}

func (c *CLI) pathScales() (palette.Scale, palette.Scale, error) {
	pc := c.Config.Palette
	ascent, err := palette.Linear(pc.Ascent[0], pc.Ascent[1])
	if err != nil {
		return nil, nil, err
	}
	descent, err := palette.Linear(pc.Descent[0], pc.Descent[1])
	if err != nil {
		return nil, nil, err
	}
	return ascent, descent, nil
}

// formatPath renders the path on one line, labels in their path colours.
func formatPath(p *path.Path, label func(string) string, colors []string) string {
	var b strings.Builder
	for i, id := range p.Vertices {
		if i > 0 {
			b.WriteString(StyleDim.Render(" " + p.Directions[i-1].Arrow() + " "))
		}
		b.WriteString(swatch(colors[i], label(id)))
	}
	return b.String()
}

// writeSteps prints one table row per vertex.
func writeSteps(w io.Writer, p *path.Path, label func(string) string, colors []string) {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, len(p.Vertices))
	for i, id := range p.Vertices {
		step := "start"
		if i > 0 {
			step = p.Directions[i-1].Arrow() + " " + p.Directions[i-1].String()
		}
		if i == p.Up {
			step += " (pivot)"
		}
		rows[i] = []string{strconv.Itoa(i), label(id), id, step}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Entity", "ID", "Step").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 1 && row >= 0 && row < len(colors) {
				return lipgloss.NewStyle().Foreground(lipgloss.Color(colors[row]))
			}
			return lipgloss.NewStyle().Foreground(colorGray)
		})

	fmt.Fprintln(w, t.Render())
}
