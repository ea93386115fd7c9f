package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/andreyvit/rdb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfigName = "rdbq"

type app struct {
	v      *viper.Viper
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "rdbq",
		Short: "Query and edit rdb database files",
		Long: `rdbq reads and modifies rdb database files from the command line.

Settings come from flags first, then RDBQ_* environment variables, then the
config file (rdbq.yaml in the current directory, or --config).

Examples:
  rdbq --db app.db create people name:string age:int
  rdbq --db app.db insert people name=Ann age=31
  rdbq --db app.db list people --where age:gt:30 --sort name
  rdbq --db app.db agg avg people age`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cfgFile, cmd.ErrOrStderr())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./rdbq.yaml)")
	pf.String("db", "", "database file")
	pf.String("log-level", "warn", "log level (debug, info, warn, error)")
	pf.BoolP("verbose", "v", false, "log every database operation")
	_ = a.v.BindPFlag("db", pf.Lookup("db"))
	_ = a.v.BindPFlag("log-level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("verbose", pf.Lookup("verbose"))

	rootCmd.AddCommand(a.newCreateCmd())
	rootCmd.AddCommand(a.newTablesCmd())
	rootCmd.AddCommand(a.newInsertCmd())
	rootCmd.AddCommand(a.newCountCmd())
	rootCmd.AddCommand(a.newListCmd())
	rootCmd.AddCommand(a.newAggCmd())
	rootCmd.AddCommand(a.newClearCmd())
	rootCmd.AddCommand(a.newDumpCmd())
	return rootCmd
}

func (a *app) loadConfig(cfgFile string, stderr io.Writer) error {
	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigName(defaultConfigName)
		a.v.SetConfigType("yaml")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file %s: %w", a.v.ConfigFileUsed(), err)
		}
	}

	a.v.SetEnvPrefix("RDBQ")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString("log-level"))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if a.v.GetBool("verbose") {
		level = min(level, slog.LevelDebug)
	}
	a.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) open(schema *rdb.Schema) (*rdb.DB, error) {
	path := a.v.GetString("db")
	if path == "" {
		return nil, errors.New("no database file, use --db or RDBQ_DB")
	}
	return rdb.Open(path, schema, rdb.Options{
		Logger:  a.logger,
		Verbose: a.v.GetBool("verbose"),
	})
}

// withSession opens the database with its stored schema and runs f in a new
// session.
func (a *app) withSession(f func(sess *rdb.Session) error) error {
	db, err := a.open(nil)
	if err != nil {
		return err
	}
	defer db.Close()

	sess, err := db.Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	a.logger.Debug("session opened", "session", sess.ID(), "tables", len(db.Schema().Tables()))
	return f(sess)
}
