package main

import (
	"fmt"
	"strings"

	"github.com/andreyvit/rdb"
	"github.com/spf13/cobra"
)

func (a *app) newInsertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insert TABLE COLUMN=VALUE...",
		Short: "Insert a row",
		Long: `Insert a row. Every column must be given a value. Date-times are RFC 3339
or plain dates; binary values are hex.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(sess *rdb.Session) error {
				t, err := sess.TableNamed(args[0])
				if err != nil {
					return err
				}
				vals, err := parseAssignments(t.Def(), args[1:])
				if err != nil {
					return err
				}
				return sess.Write(func() error {
					row, err := t.Insert(vals...)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%v\n", row)
					return nil
				})
			})
		},
	}
}

func parseAssignments(td *rdb.TableDef, args []string) ([]any, error) {
	cols := td.Columns()
	vals := make([]any, len(cols))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid assignment %q, expected COLUMN=VALUE", arg)
		}
		ci := td.ColumnIndex(name)
		if ci < 0 {
			return nil, fmt.Errorf("%s: no column %s", td.Name(), name)
		}
		if vals[ci] != nil {
			return nil, fmt.Errorf("%s: column %s given twice", td.Name(), name)
		}
		v, err := rdb.ParseValue(cols[ci].Type, raw)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", td.Name(), cols[ci].Name, err)
		}
		vals[ci] = v
	}
	for i, v := range vals {
		if v == nil {
			return nil, fmt.Errorf("%s: missing value for column %s", td.Name(), cols[i].Name)
		}
	}
	return vals, nil
}
