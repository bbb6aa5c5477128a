package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/saltyorg/rollbook/internal/config"
	"github.com/saltyorg/rollbook/internal/database"
	"github.com/saltyorg/rollbook/internal/logging"
	"github.com/saltyorg/rollbook/internal/maintenance"
	"github.com/saltyorg/rollbook/internal/school"
	"github.com/saltyorg/rollbook/internal/web"
	"github.com/saltyorg/rollbook/internal/web/flash"
	"github.com/saltyorg/rollbook/internal/web/handlers"
	"github.com/saltyorg/rollbook/internal/web/templates"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI flags, shared by both apps
var flags config.Flags

func main() {
	rootCmd := &cobra.Command{
		Use:          "rollbook",
		Short:        "Rollbook - student management web apps",
		Long:         `Rollbook serves two small student management apps: a flat roster backed by raw SQL and a school app with teachers, courses and students.`,
		SilenceUsage: true,
	}

	defaults := config.DefaultTimeoutConfig()

	pf := rootCmd.PersistentFlags()
	pf.IntVarP(&flags.Port, "port", "p", 0, "HTTP server port (default 5000, or set PORT env var)")
	pf.StringVarP(&flags.Bind, "bind", "b", "", "IP address to bind to (e.g., 127.0.0.1, 0.0.0.0)")
	pf.StringVarP(&flags.AllowSubnet, "allow-subnet", "a", "", "CIDR subnet allowed to connect (e.g., 192.168.1.0/24)")
	pf.StringVarP(&flags.DBPath, "db", "d", "", "SQLite database path (or set DB_PATH env var)")
	pf.CountVarP(&flags.Verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	pf.StringVar(&flags.Secret, "secret", "", "Secret used to seal flash messages (or set ROLLBOOK_SECRET)")
	pf.StringVar(&flags.LogFile, "log-file", "", "Log file path (default: next to the database)")
	pf.StringVar(&flags.TemplatesDir, "templates-dir", "", "Serve templates from this directory and reload them on change")
	pf.BoolVar(&flags.SecureCookies, "secure-cookies", false, "Mark cookies Secure (only when served over HTTPS)")

	// Advanced timeout flags
	pf.DurationVar(&flags.Timeouts.Read, "read-timeout", defaults.Read, "Time allowed to read a request")
	pf.DurationVar(&flags.Timeouts.Idle, "idle-timeout", defaults.Idle, "Keep-alive idle timeout")
	pf.DurationVar(&flags.Timeouts.Request, "request-timeout", defaults.Request, "Per-request handling timeout")
	pf.DurationVar(&flags.Timeouts.Shutdown, "shutdown-timeout", defaults.Shutdown, "Grace period for in-flight requests on shutdown")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "roster",
		Short: "Run the flat student roster (default db ./students.db)",
		RunE:  runRoster,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "school",
		Short: "Run the school app with teachers and courses (default db ./school.db)",
		RunE:  runSchool,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rollbook %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// startup resolves configuration and sets up logging for app
func startup(app, defaultDB string) (*config.AppConfig, error) {
	config.LoadDotEnv()

	cfg, err := config.Resolve(app, flags, defaultDB)
	if err != nil {
		return nil, err
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = logging.FilePathForDB(cfg.DBPath, app)
	}
	logging.Apply(cfg.Verbosity, cfg.Settings, logFile)

	if cfg.SecretGenerated {
		log.Warn().Msg("No secret configured; flash messages will not survive a restart. Set --secret or ROLLBOOK_SECRET.")
	}

	// Warn if binding to all interfaces without an allow list
	if (cfg.Bind == "" || cfg.Bind == "0.0.0.0" || cfg.Bind == "::") && cfg.AllowedNet == nil {
		log.Warn().Msg("Server is accessible from all interfaces without subnet restrictions. Consider using --bind or --allow-subnet.")
	}

	log.Info().
		Str("app", app).
		Str("version", version).
		Str("addr", cfg.Addr()).
		Str("database", cfg.DBPath).
		Msg("Starting Rollbook")

	return cfg, nil
}

// loadWeb prepares the template set and flash store for app
func loadWeb(cfg *config.AppConfig, pages []string) (*templates.Set, *flash.Store, error) {
	var (
		tmpls *templates.Set
		err   error
	)
	if cfg.TemplatesDir != "" {
		tmpls, err = templates.NewFromDir(cfg.TemplatesDir, pages)
	} else {
		tmpls, err = templates.New(pages)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load templates: %w", err)
	}

	flashes, err := flash.New(cfg.Secret, cfg.SecureCookies)
	if err != nil {
		return nil, nil, err
	}
	return tmpls, flashes, nil
}

func runRoster(cmd *cobra.Command, args []string) error {
	cfg, err := startup("roster", "./students.db")
	if err != nil {
		return err
	}

	db, err := database.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	tmpls, flashes, err := loadWeb(cfg, templates.RosterPages)
	if err != nil {
		return err
	}

	h := handlers.NewRoster(handlers.NewBase("roster", "Student Management", tmpls, flashes), db)
	return serve(cfg, db, tmpls, h)
}

func runSchool(cmd *cobra.Command, args []string) error {
	cfg, err := startup("school", "./school.db")
	if err != nil {
		return err
	}

	store, err := school.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	seeded, err := store.Seed()
	if err != nil {
		return fmt.Errorf("failed to seed sample data: %w", err)
	}
	if seeded {
		log.Info().Msg("Sample teachers, courses and students added")
	}

	tmpls, flashes, err := loadWeb(cfg, templates.SchoolPages)
	if err != nil {
		return err
	}

	h := handlers.NewSchool(handlers.NewBase("school", "School Management", tmpls, flashes), store)
	return serve(cfg, store, tmpls, h)
}

// serve runs maintenance and the HTTP server until SIGINT or SIGTERM
func serve(cfg *config.AppConfig, target maintenance.Target, tmpls *templates.Set, routes web.Routes) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := maintenance.New(target)
	if started, err := scheduler.Start(cfg.OptimizeSchedule, cfg.VacuumSchedule); err != nil {
		log.Warn().Err(err).Msg("Failed to start maintenance scheduler")
	} else if !started {
		log.Debug().Msg("Maintenance scheduler not started (no schedules configured)")
	}
	defer scheduler.Stop()

	if err := tmpls.Watch(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to watch templates, edits need a restart")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	server := web.NewServer(cfg, routes)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info().Msg("Rollbook stopped")
	return nil
}
