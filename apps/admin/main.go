package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trezcool/darasa/apps/shared"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/mission"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	logger := shared.NewLogger(conf, "ADMIN")

	// set up DB & storage
	ctx := context.Background()
	repos, err := shared.OpenRepositories(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	objects, closeObjects, err := shared.NewObjectStore(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up object storage: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db:         repos.DB,
		missionSvc: mission.NewService(repos.Missions, objects, shared.MissionOptions(conf, logger)),
		logger:     logger,
		out:        os.Stdout,
	}
	err = cli.run(os.Args)

	_ = closeObjects()
	_ = repos.Close()
	logger.Close()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
