package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/familyhub/core/internal/application/services"
	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/infrastructure/config"
	"github.com/familyhub/core/internal/infrastructure/database"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/infrastructure/scheduler"
	"github.com/familyhub/core/internal/infrastructure/server"
	"github.com/familyhub/core/internal/ports"
)

// Build information, set with -ldflags at release time
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the FamilyHub API server",
		Long:  "Start the FamilyHub API server together with the notification dispatcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	var steps int

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Run up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration("up", steps)
		},
	}
	upCmd.Flags().IntVar(&steps, "steps", 0, "Number of migrations to apply (0 = all)")

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Run down migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration("down", steps)
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 0, "Number of migrations to revert (0 = all)")

	migrateCmd.AddCommand(upCmd, downCmd, &cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewMemberCommand creates the family member management command
func NewMemberCommand() *cobra.Command {
	memberCmd := &cobra.Command{
		Use:   "member",
		Short: "Family member management commands",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Add a family member",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			role, _ := cmd.Flags().GetString("role")
			color, _ := cmd.Flags().GetString("color")
			email, _ := cmd.Flags().GetString("email")
			pin, _ := cmd.Flags().GetString("pin")

			req := ports.CreateMemberRequest{
				Name:  name,
				Role:  entities.MemberRole(role),
				Color: color,
			}
			if email != "" {
				req.Email = &email
			}
			if pin != "" {
				req.PIN = &pin
			}

			return createMember(cmd.Context(), req)
		},
	}

	createCmd.Flags().String("name", "", "Member name (required)")
	createCmd.Flags().String("role", "parent", "Role (mom, dad, parent, child, teen, grandparent, other)")
	createCmd.Flags().String("color", "", "Calendar color")
	createCmd.Flags().String("email", "", "E-mail address for notifications")
	createCmd.Flags().String("pin", "", "Optional numeric PIN")
	createCmd.MarkFlagRequired("name")

	memberCmd.AddCommand(createCmd)
	return memberCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print FamilyHub version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("FamilyHub Core %s\n", Version)
			fmt.Printf("Build Date: %s\n", BuildDate)
			fmt.Printf("Git Commit: %s\n", Commit)
		},
	}
}

func runServer(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer app.Close()

	srv, err := server.New(cfg, app.deps, appLogger)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	jobs := scheduler.New(app.loc, appLogger)
	if _, err := jobs.Every("notification-dispatch", cfg.Notifications.DispatchInterval, func(ctx context.Context) error {
		_, err := app.notifications.Dispatch(ctx)
		return err
	}); err != nil {
		return fmt.Errorf("schedule notification dispatch: %w", err)
	}
	jobs.Start()
	defer jobs.Stop()

	appLogger.Infow("Starting FamilyHub API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"storage", cfg.Storage.Driver,
		"ai_enabled", cfg.AI.Enabled(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newMigrator(cfg *config.Config) (*migrate.Migrate, *database.DB, error) {
	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(cfg.Database.MigrationsPath, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create migration instance: %w", err)
	}

	return m, db, nil
}

func runMigration(direction string, steps int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	m, db, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No migrations to run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Printf("Migration %s completed successfully\n", direction)
	return nil
}

func showMigrationVersion() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	m, db, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("No migrations applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("get migration version: %w", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
	return nil
}

func createMember(ctx context.Context, req ports.CreateMemberRequest) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if cfg.Storage.Driver == "memory" {
		return errors.New("member create needs STORAGE_DRIVER=postgres; the memory store does not outlive this command")
	}

	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	member, err := services.NewMemberService(store.Members(), logger.NewNop()).CreateMember(ctx, req)
	if err != nil {
		return fmt.Errorf("create member: %w", err)
	}

	fmt.Printf("Family member created successfully:\n")
	fmt.Printf("  ID: %d\n", member.ID)
	fmt.Printf("  Name: %s\n", member.Name)
	fmt.Printf("  Role: %s\n", member.Role)
	if member.HasPIN() {
		fmt.Printf("  PIN: set\n")
	}
	return nil
}
