package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kec-hub/opportunity-engine/config"
	srv "github.com/kec-hub/opportunity-engine/internal/server"
)

func main() {
	var root = &cobra.Command{Use: "opphub"}

	var cfgPath string
	var profilesPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the realtime opportunity discovery API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			profiles, err := loadProfiles(profilesPath)
			if err != nil {
				return fmt.Errorf("load profiles: %w", err)
			}
			return srv.Run(cfg, profiles)
		},
	}
	serve.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches . and ./config)")
	serve.Flags().StringVar(&profilesPath, "profiles", "", "JSON file of email -> profile records (dev profile source)")

	root.AddCommand(serve)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadProfiles reads a dev profile map. In production the portal's user
// service stands behind the ProfileSource interface instead.
func loadProfiles(path string) (srv.StaticSource, error) {
	if path == "" {
		return srv.StaticSource{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out srv.StaticSource
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
