package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	models "breakdown/internal/domain/models/decomposition"
	"breakdown/internal/domain/services"
)

var (
	explodeMaxDepth    int
	explodeOut         string
	explodeDescription string
)

var explodeCmd = &cobra.Command{
	Use:   "explode <item>",
	Short: "Decompose an item all the way down to raw materials",
	Long: `Expand every component recursively and print the resulting tree.
Progress is written to stderr. --out saves a snapshot that "breakdown layout"
and the saved-session API can read.`,
	Args: cobra.ExactArgs(1),
	RunE: runExplode,
}

func init() {
	explodeCmd.Flags().IntVar(&explodeMaxDepth, "max-depth", 0, "Maximum decomposition depth (default from MAX_DEPTH)")
	explodeCmd.Flags().StringVarP(&explodeOut, "out", "o", "", "Write the snapshot JSON to this file")
	explodeCmd.Flags().StringVar(&explodeDescription, "description", "", "Optional description of the item")
}

func runExplode(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if explodeMaxDepth > 0 {
		cfg.MaxDepth = explodeMaxDepth
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	svc, err := setup(ctx, cfg, logger)
	if err != nil {
		return err
	}

	view, err := svc.Decompositions.Start(ctx, cliUser, &services.StartDecompositionRequest{
		ItemName:    args[0],
		Description: explodeDescription,
	})
	if err != nil {
		return err
	}

	events := make(chan models.ExplodeEvent, 16)
	errc := make(chan error, 1)
	go func() {
		errc <- svc.Decompositions.Explode(ctx, cliUser, view.ID, "", events)
		close(events)
	}()
	for ev := range events {
		printEvent(cmd.ErrOrStderr(), ev)
	}
	if err := <-errc; err != nil {
		return err
	}
	svc.Wait()

	live, err := svc.Workspace.Get(view.ID, cliUser)
	if err != nil {
		return err
	}
	printTree(cmd.OutOrStdout(), live.Root(), "", true, true)

	if explodeOut != "" {
		data, err := json.MarshalIndent(live.Snapshot(), "", "  ")
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		if err := os.WriteFile(explodeOut, data, 0o644); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "snapshot written to %s\n", explodeOut)
	}
	return nil
}

func printEvent(w io.Writer, ev models.ExplodeEvent) {
	indent := strings.Repeat("  ", ev.Depth)
	switch ev.Type {
	case models.EventExpanded:
		fmt.Fprintf(w, "%s+ %s (%d parts)\n", indent, ev.Name, ev.Children)
	case models.EventCapped:
		fmt.Fprintf(w, "%s= %s (depth limit)\n", indent, ev.Name)
	case models.EventFailed:
		fmt.Fprintf(w, "%s! %s: %s\n", indent, ev.Name, ev.Error)
	case models.EventDone:
		fmt.Fprintf(w, "done: %d expanded, %d failed\n", ev.Expanded, ev.Failed)
	}
}

// printTree draws n and its descendants with box-drawing guides.
func printTree(w io.Writer, n *models.Node, prefix string, last, root bool) {
	label := n.Name
	if n.Icon != "" {
		label = n.Icon + " " + label
	}
	switch {
	case n.IsRawMaterial():
		label += " [raw]"
	case n.DepthCapped:
		label += " [depth limit]"
	}

	if root {
		fmt.Fprintln(w, label)
	} else {
		branch := "├── "
		if last {
			branch = "└── "
		}
		fmt.Fprintln(w, prefix+branch+label)
		if last {
			prefix += "    "
		} else {
			prefix += "│   "
		}
	}

	for i, child := range n.Children {
		printTree(w, child, prefix, i == len(n.Children)-1, false)
	}
}
