package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/trezcool/darasa/apps/shared"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/storage/database"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

func main() {
	conf := core.NewConfig()
	logger := shared.NewLogger(os.Stderr, conf, "admin")

	cli := &commandLine{logger: logger, out: os.Stdout}

	// set up DB
	var repos shared.Repositories
	if conf.Database.InMemory {
		repos = shared.InMemoryRepositories(inmemdb.NewDB())
	} else {
		db, err := database.Open(conf)
		errAndDie(logger, "opening database", err)
		defer func() { _ = db.Close() }()
		errAndDie(logger, "pinging database", database.Ping(context.Background(), db))

		repos = shared.PostgresRepositories(db)
		cli.db = db.DB
	}

	svcs, err := shared.NewServices(conf, repos)
	errAndDie(logger, "setting up services", err)
	cli.svcs = svcs

	// start CLI
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		closeDB(cli.db)
		os.Exit(1)
	}
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}

func errAndDie(logger core.Logger, msg string, err error) {
	if err != nil {
		logger.Fatal(msg, err)
	}
}
