package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/editor"
	"github.com/trezcool/ratiba/core/school"
	"github.com/trezcool/ratiba/core/timetable"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

// apiClient is the part of the school backend client used by the timetable commands.
type apiClient interface {
	editor.Gateway
	school.Loader
	GetTimetable(ctx context.Context, id int) (timetable.Timetable, error)
	FindTimetable(ctx context.Context, schoolClass, academicYear int) (timetable.Timetable, error)
	QuerySessions(ctx context.Context, filter timetable.SessionFilter) ([]timetable.Session, error)
}

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	out    io.Writer

	// migrate & seed
	db         *sql.DB
	schoolRepo school.Repository
	validate   *validator.Validate
	translator ut.Translator

	// show, generate & diff
	newClient func(token string) (apiClient, error)
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...) against the database")
	fmt.Fprintln(cli.out, "  token [-admin] [-subject ID] [-username NAME] - mint an API token")
	fmt.Fprintln(cli.out, "  seed [-file PATH] - insert or update the reference data (default: the embedded sample)")
	fmt.Fprintln(cli.out, "  show -id ID | -class ID [-year ID] - print a timetable grid")
	fmt.Fprintln(cli.out, "  generate -class ID [-year ID] [-template NAME] [-days 1,2,3,4,5] [-dry-run] - create a timetable round-robin")
	fmt.Fprintln(cli.out, "  diff -id ID -template NAME - preview re-templating a timetable")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx := context.Background()
	cmdArgs := args[2:]

	switch args[1] {
	case "migrate":
		if len(cmdArgs) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(cmdArgs)

	case "token":
		cmd := flag.NewFlagSet("token", flag.ContinueOnError)
		cmd.SetOutput(cli.out)
		isAdmin := cmd.Bool("admin", false, "Allow the token to edit timetables.")
		subject := cmd.String("subject", "admin", "The token subject.")
		username := cmd.String("username", "", "The username logged with the token's requests.")
		if err := cmd.Parse(cmdArgs); err != nil {
			return errHelp
		}
		return cli.token(*subject, *username, *isAdmin)

	case "seed":
		cmd := flag.NewFlagSet("seed", flag.ContinueOnError)
		cmd.SetOutput(cli.out)
		file := cmd.String("file", "", "A YAML file in the seed format. The embedded sample data is used by default.")
		if err := cmd.Parse(cmdArgs); err != nil {
			return errHelp
		}
		return cli.seed(ctx, *file)

	case "show":
		cmd := flag.NewFlagSet("show", flag.ContinueOnError)
		cmd.SetOutput(cli.out)
		id := cmd.Int("id", 0, "The timetable ID.")
		class := cmd.Int("class", 0, "The school class ID, when no timetable ID is given.")
		year := cmd.Int("year", 0, "The academic year ID (default: the current one).")
		if err := cmd.Parse(cmdArgs); err != nil {
			return errHelp
		}
		if *id == 0 && *class == 0 {
			cmd.Usage()
			return errHelp
		}
		return cli.show(ctx, *id, *class, *year)

	case "generate":
		cmd := flag.NewFlagSet("generate", flag.ContinueOnError)
		cmd.SetOutput(cli.out)
		class := cmd.Int("class", 0, "The school class ID.")
		year := cmd.Int("year", 0, "The academic year ID (default: the current one).")
		tmpl := cmd.String("template", editor.DefaultTemplate, "The period template.")
		days := cmd.String("days", "1,2,3,4,5", "The days to fill (1: Monday ... 6: Saturday).")
		dryRun := cmd.Bool("dry-run", false, "Print the generated grid without saving it.")
		if err := cmd.Parse(cmdArgs); err != nil {
			return errHelp
		}
		if *class == 0 {
			cmd.Usage()
			return errHelp
		}
		dayList, err := parseDays(*days)
		if err != nil {
			return err
		}
		return cli.generate(ctx, *class, *year, *tmpl, dayList, *dryRun)

	case "diff":
		cmd := flag.NewFlagSet("diff", flag.ContinueOnError)
		cmd.SetOutput(cli.out)
		id := cmd.Int("id", 0, "The timetable ID.")
		tmpl := cmd.String("template", "", "The period template to apply.")
		if err := cmd.Parse(cmdArgs); err != nil {
			return errHelp
		}
		if *id == 0 || *tmpl == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.diff(ctx, *id, *tmpl)

	default:
		cli.printUsage()
		return errHelp
	}
}

func parseDays(s string) ([]int, error) {
	var days []int
	for _, field := range strings.Split(s, ",") {
		day, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || timetable.DayName(day) == "" {
			return nil, errors.Errorf("invalid day %q", field)
		}
		days = append(days, day)
	}
	return days, nil
}

// client returns the backend client, prompting for a token when none is configured.
func (cli *commandLine) client() (apiClient, error) {
	token := cli.conf.API.Token
	if token == "" {
		fmt.Fprint(cli.out, "Enter API token:")
		b, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return nil, errors.Wrap(err, "reading token")
		}
		token = strings.TrimSpace(string(b))
		if token == "" {
			return nil, errHelp
		}
	}
	return cli.newClient(token)
}
