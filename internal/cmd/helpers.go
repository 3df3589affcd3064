package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/cameronsjo/stevedore/internal/config"
	"github.com/cameronsjo/stevedore/internal/fleet"
)

// loadConfig discovers the project and parses stevedore.toml, falling
// back to defaults rooted at the working directory.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load project config: %w", err)
	}
	return cfg, nil
}

// discardLogger suppresses logging for lookups that must stay silent,
// like shell completions.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fleetColumns maps the config's column names onto the parser layout.
func fleetColumns(cfg *config.Config) fleet.Columns {
	cols := fleet.DefaultColumns()
	if cfg.Fleet.NameColumn != "" {
		cols.Name = cfg.Fleet.NameColumn
	}
	if cfg.Fleet.GroupColumn != "" {
		cols.Group = cfg.Fleet.GroupColumn
	}
	if cfg.Fleet.TagsColumn != "" {
		cols.Tags = cfg.Fleet.TagsColumn
	}
	if cfg.Fleet.TagDelimiter != "" {
		cols.TagDelimiter = cfg.Fleet.TagDelimiter
	}
	return cols
}

// loadFleet parses the fleet file named by the arg, or the configured
// one when the arg is empty.
func loadFleet(cfg *config.Config, arg string, logger *slog.Logger) (*fleet.Store, error) {
	path := cfg.FleetFile()
	if arg != "" {
		path = arg
	}
	return fleet.ParseSourceFile(path, fleetColumns(cfg), logger)
}
