package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/frostdev-ops/home-planner-go/internal/api/middleware"
	"github.com/frostdev-ops/home-planner-go/internal/config"
	"github.com/frostdev-ops/home-planner-go/internal/core/backup"
	"github.com/frostdev-ops/home-planner-go/internal/core/floorplan"
	"github.com/frostdev-ops/home-planner-go/internal/core/planner"
	"github.com/frostdev-ops/home-planner-go/internal/core/scoring"
	"github.com/frostdev-ops/home-planner-go/internal/core/seed"
	"github.com/frostdev-ops/home-planner-go/internal/database"
	"github.com/frostdev-ops/home-planner-go/internal/discovery"
	"github.com/frostdev-ops/home-planner-go/pkg/logger"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const defaultBrowseTimeout = 3 * time.Second

type session struct {
	cfg     *config.Config
	log     *logrus.Logger
	planner *planner.Service
	close   func()
}

func loadConfig(c *cli.Context) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadFrom(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewWithOptions(logger.Options{Level: c.String("log-level"), Format: "text", Output: os.Stderr})
	return cfg, log.Logger, nil
}

// open connects to the configured database without starting any server side
// publisher, so no change events leave the process
func open(c *cli.Context) (*session, error) {
	cfg, log, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db.DB, cfg.Database.MigrationsPath); err != nil {
			db.Close()
			return nil, err
		}
	}

	svc := planner.NewService(database.NewRepositories(db), nil, nil, floorplan.NewProcessor(cfg.Floorplan), log)
	return &session{cfg: cfg, log: log, planner: svc, close: func() { db.Close() }}, nil
}

func (s *session) backups() (*backup.Manager, error) {
	return backup.NewManager(s.cfg.Backup, s.planner, nil, s.log)
}

func firstArg(c *cli.Context) (string, error) {
	if c.NArg() < 1 {
		return "", cli.Exit(fmt.Sprintf("usage: %s %s %s", c.App.Name, c.Command.Name, c.Command.ArgsUsage), 2)
	}
	return c.Args().First(), nil
}

func importCommand(c *cli.Context) error {
	path, err := firstArg(c)
	if err != nil {
		return err
	}
	catalog, err := seed.Load(path)
	if err != nil {
		return err
	}

	s, err := open(c)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := seed.NewImporter(s.planner, planner.IsValidation, s.log).Import(c.Context, catalog)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "created %d, skipped %d, rejected %d\n", res.Created, res.Skipped, len(res.Rejected))
	for _, r := range res.Rejected {
		fmt.Fprintf(c.App.ErrWriter, "  %v\n", r)
	}
	return nil
}

func exportCommand(c *cli.Context) error {
	s, err := open(c)
	if err != nil {
		return err
	}
	defer s.close()

	m, err := s.backups()
	if err != nil {
		return err
	}

	var w io.Writer = c.App.Writer
	if out := c.String("output"); out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return m.Export(c.Context, w)
}

func restoreCommand(c *cli.Context) error {
	path, err := firstArg(c)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	s, err := open(c)
	if err != nil {
		return err
	}
	defer s.close()

	m, err := s.backups()
	if err != nil {
		return err
	}
	if err := m.Import(c.Context, f); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "restored %s\n", path)
	return nil
}

func backupCommand(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		name = "manual"
	}

	s, err := open(c)
	if err != nil {
		return err
	}
	defer s.close()

	m, err := s.backups()
	if err != nil {
		return err
	}
	b, err := m.CreateBackup(c.Context, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s (%d bytes)\n", b.ID, b.Size)
	return nil
}

// scoreCommand works on the catalog file alone and never opens the database
func scoreCommand(c *cli.Context) error {
	path, err := firstArg(c)
	if err != nil {
		return err
	}
	catalog, err := seed.Load(path)
	if err != nil {
		return err
	}

	for _, entry := range catalog.Devices {
		d := entry.Device()
		if !d.Category.Valid() {
			fmt.Fprintf(c.App.ErrWriter, "%-32s unknown category %q\n", d.Name, d.Category)
			continue
		}
		fmt.Fprintf(c.App.Writer, "%-32s %-16s %6.2f\n", d.Name, d.Category, scoring.ForDevice(&d))
	}
	return nil
}

func tokenCommand(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return cli.Exit("auth.jwt_secret is not configured", 1)
	}

	expiry := c.Duration("expiry")
	if expiry == 0 {
		expiry = time.Duration(cfg.Auth.TokenExpiry) * time.Second
	}
	token, err := middleware.IssueToken(cfg.Auth.JWTSecret, c.String("subject"), expiry)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, token)
	return nil
}

func discoverCommand(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	instances, err := discovery.Browse(c.Context, cfg.Discovery, c.Duration("timeout"))
	if err != nil {
		return err
	}
	if len(instances) == 0 {
		fmt.Fprintln(c.App.ErrWriter, "no planner servers found")
		return nil
	}
	for _, inst := range instances {
		fmt.Fprintf(c.App.Writer, "%-24s %-40s %s\n", inst.Name, inst.URL(), inst.Text["version"])
	}
	return nil
}
