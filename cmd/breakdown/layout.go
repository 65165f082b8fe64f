package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	models "breakdown/internal/domain/models/decomposition"
	"breakdown/internal/service/decomposition"
)

var layoutCmd = &cobra.Command{
	Use:   "layout <snapshot.json>",
	Short: "Print node positions for a saved snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runLayout,
}

func runLayout(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	sess, err := decomposition.Rehydrate(&snap, cliUser)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLEVEL\tX\tY\tSCALE\tPINNED")
	for _, n := range sess.Layout().Nodes {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f\t%.1f\t%.2f\t%t\n", n.NodeID, n.Name, n.Level, n.X, n.Y, n.Scale, n.Overridden)
	}
	return tw.Flush()
}
