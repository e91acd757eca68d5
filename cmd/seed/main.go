package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"carfix/internal/config"
	"carfix/internal/db"
	"carfix/internal/logs"
	"carfix/internal/model"
	"carfix/internal/repository"
)

var defaultBrands = []model.Brand{
	{Name: "Bosch", Description: "Brakes, filters and electrical parts"},
	{Name: "Brembo", Description: "Brake systems"},
	{Name: "Denso", Description: "Spark plugs, sensors and cooling"},
	{Name: "Mann-Filter", Description: "Air, oil and cabin filters"},
	{Name: "Monroe", Description: "Shock absorbers and struts"},
	{Name: "NGK", Description: "Ignition parts"},
}

var defaultCategories = []model.Category{
	{Name: "Brakes", Description: "Pads, rotors and calipers", IsFeatured: true},
	{Name: "Engine", Description: "Belts, gaskets and ignition"},
	{Name: "Filters", Description: "Air, oil, fuel and cabin filters", IsFeatured: true},
	{Name: "Suspension", Description: "Shocks, struts and bushings"},
	{Name: "Electrical", Description: "Batteries, alternators and lighting"},
}

var (
	adminEmail    string
	adminPassword string
)

var rootCmd = &cobra.Command{
	Use:   "carfix-seed",
	Short: "Seed the CarFix database",
	Long: `Seed the CarFix database with an admin account, default brands and
default categories. Every step is idempotent and can be re-run.

Examples:
  carfix-seed                                 # admin, brands and categories
  carfix-seed admin --admin-password s3cret1  # admin only
  carfix-seed catalog                         # brands and categories only`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, s *seeder) error {
			if err := s.admin(ctx); err != nil {
				return err
			}
			return s.catalog(ctx)
		})
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Create or reset the admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, s *seeder) error {
			return s.admin(ctx)
		})
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Create the default brands and categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, s *seeder) error {
			return s.catalog(ctx)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&adminEmail, "admin-email", "", "Admin email (overrides ADMIN_EMAIL)")
	rootCmd.PersistentFlags().StringVar(&adminPassword, "admin-password", "", "Admin password (overrides ADMIN_PASSWORD)")
	rootCmd.AddCommand(adminCmd, catalogCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

type seeder struct {
	cfg    *config.Config
	logger *slog.Logger
	users  repository.UserRepository
	brands repository.BrandRepository
	cats   repository.CategoryRepository
}

// withDB loads configuration, connects and migrates, then runs fn.
func withDB(ctx context.Context, fn func(ctx context.Context, s *seeder) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if adminEmail != "" {
		cfg.AdminEmail = adminEmail
	}
	if adminPassword != "" {
		cfg.AdminPassword = adminPassword
	}
	logger, err := logs.New(cfg)
	if err != nil {
		return err
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, logger, false)
	if err != nil {
		logger.Error("seed failed", slog.Any("error", err))
		return err
	}
	defer db.Close(gormDB)

	if err := db.Migrate(gormDB, false, logger); err != nil {
		logger.Error("seed failed", slog.Any("error", err))
		return err
	}

	s := &seeder{
		cfg:    cfg,
		logger: logger,
		users:  repository.NewUserRepository(gormDB),
		brands: repository.NewBrandRepository(gormDB),
		cats:   repository.NewCategoryRepository(gormDB),
	}
	if err := fn(ctx, s); err != nil {
		logger.Error("seed failed", slog.Any("error", err))
		return err
	}
	logger.Info("seed completed")
	return nil
}

func (s *seeder) admin(ctx context.Context) error {
	return seedAdmin(ctx, s.users, s.cfg, s.logger)
}

func (s *seeder) catalog(ctx context.Context) error {
	if err := seedBrands(ctx, s.brands, s.logger); err != nil {
		return err
	}
	return seedCategories(ctx, s.cats, s.logger)
}

// seedAdmin creates the admin account, or resets an existing account with
// that email to an active, verified admin.
func seedAdmin(ctx context.Context, users repository.UserRepository, cfg *config.Config, logger *slog.Logger) error {
	if cfg.AdminPassword == "" {
		logger.Warn("ADMIN_PASSWORD not set, skipping admin user")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}
	admin := &model.User{
		Name:         "Admin",
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		IsVerified:   true,
		IsActive:     true,
	}
	created, err := users.UpsertByEmail(ctx, admin)
	if err != nil {
		return errors.Wrapf(err, "upsert admin %s", cfg.AdminEmail)
	}
	logger.Info("admin user ready",
		slog.String("email", admin.Email),
		slog.Uint64("id", uint64(admin.ID)),
		slog.Bool("created", created))
	return nil
}

func seedBrands(ctx context.Context, brands repository.BrandRepository, logger *slog.Logger) error {
	created := 0
	for _, b := range defaultBrands {
		brand := b
		ok, err := brands.FirstOrCreateByName(ctx, &brand)
		if err != nil {
			return errors.Wrapf(err, "seed brand %s", b.Name)
		}
		if ok {
			created++
		}
	}
	logger.Info("brands seeded", slog.Int("created", created), slog.Int("total", len(defaultBrands)))
	return nil
}

func seedCategories(ctx context.Context, categories repository.CategoryRepository, logger *slog.Logger) error {
	created := 0
	for _, c := range defaultCategories {
		category := c
		category.IsActive = true
		ok, err := categories.FirstOrCreateByName(ctx, &category)
		if err != nil {
			return errors.Wrapf(err, "seed category %s", c.Name)
		}
		if ok {
			created++
		}
	}
	logger.Info("categories seeded", slog.Int("created", created), slog.Int("total", len(defaultCategories)))
	return nil
}
