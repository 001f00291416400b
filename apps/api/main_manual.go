package main

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	echoapi "github.com/trezcool/ratiba/apps/api/echo"
	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/school"
	"github.com/trezcool/ratiba/core/timetable"
	appfs "github.com/trezcool/ratiba/fs"
	logsvc "github.com/trezcool/ratiba/services/logger"
	"github.com/trezcool/ratiba/storage/database"
	inmemdb "github.com/trezcool/ratiba/storage/database/inmem"
	sqlxrepos "github.com/trezcool/ratiba/storage/database/sqlx"
)

type repositories struct {
	timetable timetable.Repository
	school    school.Repository
	closer    io.Closer // nil for in-memory storage
}

func startManual() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up storage
	repos, err := setUpStorage(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s storage: %v", conf.Storage, err), err)
	}
	if repos.closer != nil {
		defer func() {
			if err = repos.closer.Close(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	school.InitValidators(validate, translator)
	timetable.InitValidators(validate, translator)

	// set up services
	schoolSvc := school.NewService(repos.school, validate, translator)
	timetableSvc := timetable.NewService(repos.timetable, validate, translator)

	if conf.Storage == core.StorageInMem {
		if err = seedSample(schoolSvc); err != nil {
			logger.Fatal(fmt.Sprintf("seeding reference data: %v", err), err)
		}
		dbLogger.Info("in-memory storage seeded from " + appfs.SeedFile)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Storage)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			TimetableSvc: timetableSvc,
			SchoolSvc:    schoolSvc,
			Validate:     validate,
			Translator:   translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpStorage(conf *core.Config) (repositories, error) {
	switch conf.Storage {
	case core.StorageInMem:
		db, err := inmemdb.Open()
		if err != nil {
			return repositories{}, err
		}
		return repositories{
			timetable: inmemdb.NewTimetableRepository(db),
			school:    inmemdb.NewSchoolRepository(db),
		}, nil

	case core.StoragePostgres:
		ctx := context.Background()
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return repositories{}, err
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			return repositories{}, err
		}
		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return repositories{}, err
		}
		return repositories{
			timetable: sqlxrepos.NewTimetableRepository(db),
			school:    sqlxrepos.NewSchoolRepository(db),
			closer:    db,
		}, nil
	}
	return repositories{}, errors.Errorf("unknown storage %q", conf.Storage)
}

func seedSample(svc *school.Service) error {
	f, err := appfs.FS.Open(appfs.SeedFile)
	if err != nil {
		return errors.Wrap(err, "opening seed file")
	}
	defer f.Close()

	data, err := school.ReadData(f)
	if err != nil {
		return err
	}
	return svc.Seed(context.Background(), data)
}
