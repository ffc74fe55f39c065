package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/misterclayt0n/practicebuddy/internal/config"
	"github.com/spf13/cobra"
)

var initSetupCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file and create the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			var err error
			if path, err = config.GetConfigPath(); err != nil {
				return fmt.Errorf("Failed to locate config: %w", err)
			}
		}

		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if err := writeConfig(path, cfg); err != nil {
				return err
			}
			fmt.Printf("✅ Config written to %s\n", path)
		} else {
			fmt.Printf("Config already exists at %s\n", path)
		}

		// The store was opened (and its schema created) before this command ran.
		fmt.Printf("✅ Database initialized (%s: %s)\n", cfg.DB.Backend, cfg.DB.ConnectionString)
		return nil
	},
}

func writeConfig(path string, c *config.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("Failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("Failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("Failed to write config: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(initSetupCmd)
}
