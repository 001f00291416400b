package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/school"
	"github.com/trezcool/ratiba/core/timetable"
	logsvc "github.com/trezcool/ratiba/services/logger"
	"github.com/trezcool/ratiba/services/schoolapi"
	"github.com/trezcool/ratiba/storage/database"
	sqlxrepos "github.com/trezcool/ratiba/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	school.InitValidators(validate, translator)
	timetable.InitValidators(validate, translator)

	cli := commandLine{
		conf:       conf,
		logger:     logger,
		out:        os.Stdout,
		validate:   validate,
		translator: translator,
		newClient: func(token string) (apiClient, error) {
			apiConf := conf.API
			apiConf.Token = token
			return schoolapi.NewClient(apiConf, logger)
		},
	}

	// only the migrate & seed commands talk to the database
	if len(os.Args) > 1 && (os.Args[1] == "migrate" || os.Args[1] == "seed") {
		ctx := context.Background()
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			logger.Fatal("creating database", err)
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			logger.Fatal("opening database", err)
		}
		defer db.Close()

		cli.db = db.DB
		cli.schoolRepo = sqlxrepos.NewSchoolRepository(db)
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed: "+err.Error(), err)
		}
		if cli.db != nil {
			_ = cli.db.Close()
		}
		os.Exit(1)
	}
}
