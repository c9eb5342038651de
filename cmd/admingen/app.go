package main

import (
	"context"
	"os"
	"slices"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	admingen "github.com/goliatone/go-admingen"
	"github.com/goliatone/go-admingen/internal/config"
	"github.com/goliatone/go-admingen/internal/demo"
	"github.com/goliatone/go-admingen/pkg/i18n"
	"github.com/goliatone/go-admingen/pkg/query/sqlstore"
	"github.com/goliatone/go-admingen/pkg/repository"
)

// openAdmin assembles the demo library admin from cfg.
func openAdmin(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*admingen.Admin, error) {
	catalog, err := demo.Catalog()
	if err != nil {
		return nil, err
	}
	translations, err := loadTranslations(cfg.Admin.Translations)
	if err != nil {
		return nil, err
	}

	seed := cfg.Database.Seed
	if seed && cfg.Database.Driver != config.DriverSQLite {
		logger.Warn("demo schema targets sqlite; skipping seed", zap.String("driver", cfg.Database.Driver))
		seed = false
	}

	return admingen.New(ctx,
		admingen.WithDatabase(cfg.Database.Driver, cfg.Database.DSN),
		admingen.WithCatalog(catalog),
		admingen.WithRegistrar(func(reg *repository.Registry, store *sqlstore.Store) error {
			if seed {
				if err := demo.Migrate(ctx, store.DB(), true); err != nil {
					return err
				}
			}
			return demo.Register(reg, store, catalog,
				demo.WithExportDir(os.TempDir()),
				demo.WithLogger(logger.Named("demo")),
			)
		}),
		admingen.WithBasePath(cfg.Server.BasePath),
		admingen.WithTranslations(translations, locales(cfg.Admin.Locale, translations)...),
		admingen.WithPerPage(cfg.Admin.PerPage),
		admingen.WithPickerLimit(cfg.Picker.Limit),
		admingen.WithLogger(logger),
	)
}

// loadTranslations reads YAML locale files from dir, or the bundled demo
// locales when dir is empty.
func loadTranslations(dir string) (*i18n.Catalog, error) {
	if dir == "" {
		return demo.Translations()
	}
	return i18n.LoadFS(os.DirFS(dir))
}

// locales lists the catalog's locales with preferred first.
func locales(preferred string, catalog *i18n.Catalog) []string {
	out := []string{preferred}
	for _, locale := range catalog.Locales() {
		if !slices.Contains(out, locale) {
			out = append(out, locale)
		}
	}
	return out
}
