package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/school"
	appfs "github.com/trezcool/ratiba/fs"
)

func (cli *commandLine) seed(ctx context.Context, file string) error {
	var (
		r   io.ReadCloser
		err error
	)
	if file == "" {
		file = appfs.SeedFile
		r, err = appfs.FS.Open(file)
	} else {
		r, err = os.Open(file)
	}
	if err != nil {
		return errors.Wrap(err, "opening seed file")
	}
	defer r.Close()

	data, err := school.ReadData(r)
	if err != nil {
		return err
	}
	svc := school.NewService(cli.schoolRepo, cli.validate, cli.translator)
	if err = svc.Seed(ctx, data); err != nil {
		return err
	}

	fmt.Fprintf(
		cli.out,
		"seeded %s: %d classes, %d subjects, %d teachers, %d rooms, %d academic years\n",
		file, len(data.Classes), len(data.Subjects), len(data.Teachers), len(data.Rooms), len(data.AcademicYears),
	)
	return nil
}
