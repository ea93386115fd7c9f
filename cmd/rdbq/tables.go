package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/andreyvit/rdb"
	"github.com/spf13/cobra"
)

func (a *app) newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables with their columns and row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(sess *rdb.Session) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "TABLE\tROWS\tSIZE\tCOLUMNS")
				for _, td := range sess.DB().Schema().Tables() {
					st := sess.TableStats(td)
					fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", td.Name(), st.Rows, st.DataSize, columnList(td))
				}
				return w.Flush()
			})
		},
	}
}

func columnList(td *rdb.TableDef) string {
	var s string
	for i, col := range td.Columns() {
		if i > 0 {
			s += ", "
		}
		s += col.Name + ":" + col.Type.String()
	}
	return s
}
