package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andreyvit/rdb"
	"github.com/andreyvit/rdb/results"
	"github.com/spf13/cobra"
)

func (a *app) newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create TABLE COLUMN:TYPE...",
		Short: "Create a table",
		Long: `Create a table with the given columns. Column types are int, bool, float,
double, string, date-time and binary. The database file is created if needed.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, err := parseColumns(args[1:])
			if err != nil {
				return err
			}
			existing, err := a.storedSchema()
			if err != nil {
				return err
			}

			scm := rdb.NewSchema()
			for _, td := range existing.Tables() {
				rdb.AddTable(scm, td.Name(), td.Columns()...)
			}
			td, err := rdb.DefineTable(scm, args[0], cols...)
			if err != nil {
				return err
			}

			db, err := a.open(scm)
			if err != nil {
				return err
			}
			if err := db.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", td)
			return nil
		},
	}
}

// storedSchema returns the schema saved in the database file, or an empty
// schema if the file is new.
func (a *app) storedSchema() (*rdb.Schema, error) {
	db, err := a.open(nil)
	if errors.Is(err, rdb.ErrNoCatalog) {
		return rdb.NewSchema(), nil
	} else if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.Schema(), nil
}

func parseColumns(args []string) ([]rdb.Column, error) {
	cols := make([]rdb.Column, 0, len(args))
	for _, arg := range args {
		name, typeName, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, fmt.Errorf("invalid column %q, expected NAME:TYPE", arg)
		}
		typ, err := results.ParseColumnType(typeName)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		cols = append(cols, rdb.Col(name, typ))
	}
	return cols, nil
}
