package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/andreyvit/rdb"
	"github.com/andreyvit/rdb/results"
	"github.com/spf13/cobra"
)

// selection holds the --where and --sort flags shared by the commands that
// operate on a subset of a table's rows.
type selection struct {
	where []string
	sort  []string
}

func (s *selection) addWhereFlag(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&s.where, "where", "w", nil, "condition COLUMN:OP:VALUE, op is one of eq, ne, gt, ge, lt, le, prefix, suffix, contains (repeatable)")
}

func (s *selection) addSortFlag(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&s.sort, "sort", "s", nil, "sort by COLUMN or COLUMN:desc (repeatable)")
}

// results builds lazy results over the rows of t selected by the flags.
func (s *selection) results(sess *rdb.Session, t *rdb.Table) (*results.Results, error) {
	order, err := parseSortOrder(t.Def(), s.sort)
	if err != nil {
		return nil, err
	}
	if len(s.where) == 0 && order.IsEmpty() {
		return sess.All(t), nil
	}
	q := t.Where()
	for _, w := range s.where {
		column, rest, ok1 := strings.Cut(w, ":")
		op, value, ok2 := strings.Cut(rest, ":")
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("invalid condition %q, expected COLUMN:OP:VALUE", w)
		}
		if err := q.Cond(column, op, value); err != nil {
			return nil, err
		}
	}
	return sess.Where(q, order), nil
}

func parseSortOrder(td *rdb.TableDef, specs []string) (results.SortOrder, error) {
	var order results.SortOrder
	for _, spec := range specs {
		name, dir, _ := strings.Cut(spec, ":")
		ci := td.ColumnIndex(name)
		if ci < 0 {
			return nil, fmt.Errorf("%s: no column %s", td.Name(), name)
		}
		switch strings.ToLower(dir) {
		case "", "asc":
			order = append(order, results.Ascending(ci))
		case "desc":
			order = append(order, results.Descending(ci))
		default:
			return nil, fmt.Errorf("invalid sort direction %q", dir)
		}
	}
	return order, nil
}

func (a *app) newCountCmd() *cobra.Command {
	var sel selection
	cmd := &cobra.Command{
		Use:   "count TABLE",
		Short: "Count rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(sess *rdb.Session) error {
				t, err := sess.TableNamed(args[0])
				if err != nil {
					return err
				}
				res, err := sel.results(sess, t)
				if err != nil {
					return err
				}
				n, err := res.Size(sess)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
	sel.addWhereFlag(cmd)
	return cmd
}

func (a *app) newListCmd() *cobra.Command {
	var sel selection
	var limit int
	cmd := &cobra.Command{
		Use:   "list TABLE",
		Short: "Print rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(sess *rdb.Session) error {
				t, err := sess.TableNamed(args[0])
				if err != nil {
					return err
				}
				res, err := sel.results(sess, t)
				if err != nil {
					return err
				}
				rows, err := res.All(sess)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				ncol := t.ColumnCount()
				header := make([]string, ncol)
				for c := range ncol {
					header[c] = strings.ToUpper(t.ColumnName(c))
				}
				fmt.Fprintln(w, "#\t"+strings.Join(header, "\t"))
				cells := make([]string, ncol)
				for i, row := range rows {
					if limit > 0 && i >= limit {
						break
					}
					for c := range ncol {
						cells[c] = row.Value(c).String()
					}
					fmt.Fprintln(w, strconv.Itoa(row.Index())+"\t"+strings.Join(cells, "\t"))
				}
				return w.Flush()
			})
		},
	}
	sel.addWhereFlag(cmd)
	sel.addSortFlag(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "print at most this many rows (0 for all)")
	return cmd
}

var aggregateOps = map[string]results.AggregateOp{
	"max":     results.Max,
	"min":     results.Min,
	"sum":     results.Sum,
	"avg":     results.Average,
	"average": results.Average,
}

func (a *app) newAggCmd() *cobra.Command {
	var sel selection
	cmd := &cobra.Command{
		Use:   "agg (max|min|sum|avg) TABLE COLUMN",
		Short: "Aggregate a column",
		Long: `Compute the maximum, minimum, sum or average of a numeric column. Max and
min also work on date-time columns. Prints (none) when no rows match.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, ok := aggregateOps[strings.ToLower(args[0])]
			if !ok {
				return fmt.Errorf("unknown aggregate %q", args[0])
			}
			return a.withSession(func(sess *rdb.Session) error {
				t, err := sess.TableNamed(args[1])
				if err != nil {
					return err
				}
				ci := t.Def().ColumnIndex(args[2])
				if ci < 0 {
					return fmt.Errorf("%s: no column %s", t.Name(), args[2])
				}
				res, err := sel.results(sess, t)
				if err != nil {
					return err
				}
				v, ok, err := res.Aggregate(sess, ci, op)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "(none)")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), v)
				}
				return nil
			})
		},
	}
	sel.addWhereFlag(cmd)
	return cmd
}

func (a *app) newClearCmd() *cobra.Command {
	var sel selection
	cmd := &cobra.Command{
		Use:   "clear TABLE",
		Short: "Delete rows",
		Long:  `Delete every row of a table, or only the rows matching --where.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(sess *rdb.Session) error {
				t, err := sess.TableNamed(args[0])
				if err != nil {
					return err
				}
				var n int
				err = sess.Write(func() error {
					res, err := sel.results(sess, t)
					if err != nil {
						return err
					}
					if n, err = res.Size(sess); err != nil {
						return err
					}
					return res.Clear(sess)
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d rows\n", n)
				return nil
			})
		},
	}
	sel.addWhereFlag(cmd)
	return cmd
}
