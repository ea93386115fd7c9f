package main

import (
	"fmt"

	"github.com/andreyvit/rdb"
	"github.com/spf13/cobra"
)

func (a *app) newDumpCmd() *cobra.Command {
	var stats, meta, noRows bool
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the raw contents of every table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := rdb.DumpTableHeaders
			if !noRows {
				flags |= rdb.DumpRows
			}
			if stats {
				flags |= rdb.DumpStats
			}
			if meta {
				flags |= rdb.DumpMeta
			}
			return a.withSession(func(sess *rdb.Session) error {
				_, err := fmt.Fprint(cmd.OutOrStdout(), sess.Dump(flags))
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&stats, "stats", false, "include storage statistics")
	cmd.Flags().BoolVar(&meta, "meta", false, "include table metadata")
	cmd.Flags().BoolVar(&noRows, "no-rows", false, "omit rows")
	return cmd
}
