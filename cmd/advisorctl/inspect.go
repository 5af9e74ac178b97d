package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/agents"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/router"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRouteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route <message>",
		Short: "Show which agent a message is routed to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decision := router.New().Decide(strings.Join(args, " "))
			out := cmd.OutOrStdout()
			if outputJSON {
				return writeJSON(out, decision)
			}

			agent := agents.Get(decision.AgentID)
			fmt.Fprintf(out, "agent:   %s (%s)\n", agent.Name, agent.DisplayName)
			fmt.Fprintf(out, "topic:   %s\n", decision.Topic)
			if decision.Keyword != "" {
				fmt.Fprintf(out, "keyword: %s\n", decision.Keyword)
			}
			return nil
		},
	}
}

func newAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the registered agents and their tools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			defs := make([]agents.Definition, 0, len(agents.IDs()))
			for _, id := range agents.IDs() {
				defs = append(defs, agents.Get(id))
			}
			if outputJSON {
				return writeJSON(out, defs)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDISPLAY NAME\tTOOLS")
			for _, d := range defs {
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, d.DisplayName, strings.Join(d.Tools, ", "))
			}
			return w.Flush()
		},
	}
}
