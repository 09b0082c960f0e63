package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dep2p/go-rawlink"
)

// printStatusTable 打印每个节点的汇合结果
func printStatusTable(w io.Writer, nodes []*rawlink.Node) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MAC\tSTATE\tMAGIC\tROLE\tDEST\tUNICAST\tBROADCAST\tPEERS\tRESULT")
	for _, n := range nodes {
		st := n.Status()

		role := "listener"
		switch {
		case st.UnicastActive:
			role = "sender"
		case st.BroadcastActive:
			role = "searching"
		}

		result := "ok"
		if n.Engine().Running() {
			result = "-"
		} else if err := n.Rendezvous().Err(); err != nil {
			result = err.Error()
		}

		fmt.Fprintf(tw, "%s\t%s\t%08x\t%s\t%s\t%d\t%d\t%d\t%s\n",
			n.Link().LocalMAC(),
			st.State,
			st.Magic,
			role,
			st.Dest,
			st.UnicastSeq,
			st.BroadcastSeq,
			len(n.Rendezvous().Sightings()),
			result)
	}
	return tw.Flush()
}
