package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/apps"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/mission"
	"github.com/trezcool/darasa/storage/database"
)

var (
	runMigrationsFunc = database.RunMigrations // mockable

	errHelp     = errors.New("help provided")
	errNoPostgres = errors.New("migrate needs the postgres database engine")
)

type commandLine struct {
	db         *sqlx.DB // nil with the memory engine
	missionSvc mission.Service
	logger     core.Logger
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run a goose command (up, down, status, redo, version...)")
	fmt.Fprintln(cli.out, "  normalizejson - move every mission JSON blob to <dir>/<mission_uid>.json")
	fmt.Fprintln(cli.out, "  resolve -id ID [-class CLASS_ID] - print a mission as served to a class")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	resolveCmd := flag.NewFlagSet("resolve", flag.ContinueOnError)
	resolveCmd.SetOutput(cli.out)
	resolveID := resolveCmd.String("id", "", "The mission's ID.")
	resolveClass := resolveCmd.String("class", "", "The class whose customization applies (none by default).")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "normalizejson":
		return cli.normalizeJSON()
	case "resolve":
		if err := resolveCmd.Parse(args[2:]); err != nil {
			return err
		}
		if strings.TrimSpace(*resolveID) == "" {
			resolveCmd.Usage()
			return apps.NewArgumentError("resolve", "-id", "is required")
		}
		return cli.resolve(*resolveID, *resolveClass)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoPostgres
	}
	return runMigrationsFunc(cli.db, args[0], args[1:]...)
}

func (cli *commandLine) normalizeJSON() error {
	report, err := cli.missionSvc.NormalizeJSONPaths(context.Background())
	if err != nil {
		return err
	}
	for _, w := range report.Warnings {
		cli.logger.Warn("normalizejson: " + w)
	}
	return cli.printJSON(report)
}

func (cli *commandLine) resolve(missionID, classID string) error {
	eff, err := cli.missionSvc.Effective(context.Background(), strings.TrimSpace(missionID), strings.TrimSpace(classID))
	if err != nil {
		return err
	}
	return cli.printJSON(eff)
}

func (cli *commandLine) printJSON(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
