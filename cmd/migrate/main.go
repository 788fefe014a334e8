package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/printforge/printforge-backend/pkg/config"
	"github.com/printforge/printforge-backend/pkg/db"
	"github.com/printforge/printforge-backend/pkg/logger"
	"github.com/printforge/printforge-backend/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version string
}

// offline commands work on files only; everything else opens the database.
var offline = map[string]func(options) error{
	"create": func(o options) error {
		path, err := migrate.NewFile(o.dir, o.name, time.Now())
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	},
	"validate": func(o options) error {
		if err := migrate.ValidateDir(o.dir); err != nil {
			return err
		}
		fmt.Println("migrations ok")
		return nil
	},
}

var online = map[string]func(context.Context, *migrate.Runner, options) error{
	"up": func(ctx context.Context, r *migrate.Runner, _ options) error {
		done, err := r.Up(ctx)
		report(done)
		return err
	},
	"down": func(ctx context.Context, r *migrate.Runner, _ options) error {
		done, err := r.Down(ctx)
		report(done)
		return err
	},
	"to": func(ctx context.Context, r *migrate.Runner, o options) error {
		target, err := strconv.ParseInt(o.version, 10, 64)
		if err != nil {
			return fmt.Errorf("-version must be YYYYMMDDHHMMSS: %w", err)
		}
		done, err := r.To(ctx, target)
		report(done)
		return err
	},
	"status": func(ctx context.Context, r *migrate.Runner, _ options) error {
		statuses, err := r.Status(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
		for _, s := range statuses {
			applied := "-"
			if s.State == goose.StateApplied {
				applied = s.AppliedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
		}
		return tw.Flush()
	},
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	var opts options
	cmd := flag.String("cmd", "up", "one of: up, down, to, status, create, validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "migrations directory for create and validate")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version for -cmd=to")
	flag.Parse()

	if run, ok := offline[*cmd]; ok {
		if err := run(opts); err != nil {
			fail(ctx, logg, *cmd, err)
		}
		return
	}
	run, ok := online[*cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown -cmd %q\n", *cmd)
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fail(ctx, logg, "config", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	if cfg.DB.Driver == config.DriverSQLite {
		fail(ctx, logg, *cmd, fmt.Errorf("goose migrations target postgres; sqlite uses the mirrored schema"))
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		fail(ctx, logg, "database", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		fail(ctx, logg, "database", err)
	}
	runner, err := migrate.NewRunner(sqlDB, migrate.Migrations())
	if err != nil {
		fail(ctx, logg, "goose", err)
	}

	if err := run(ctx, runner, opts); err != nil {
		fail(ctx, logg, *cmd, err)
	}
}

func report(done []migrate.Applied) {
	for _, a := range done {
		fmt.Printf("%-5s %d %s\n", a.Direction, a.Version, a.Path)
	}
}

func fail(ctx context.Context, logg *logger.Logger, step string, err error) {
	logg.Error(ctx, fmt.Sprintf("migrate %s failed", step), err)
	os.Exit(1)
}
