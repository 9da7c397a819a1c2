package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/gitloc/internal/config"
	"github.com/Sumatoshi-tech/gitloc/internal/snapshot"
)

// NewCacheCommand creates the cache command group.
func NewCacheCommand() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the snapshot cache",
	}

	cacheCmd.AddCommand(newCacheClearCommand())

	return cacheCmd
}

func newCacheClearCommand() *cobra.Command {
	var (
		configPath string
		cacheDir   string
	)

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("cache-dir") {
				cfg.Cache.Dir = cacheDir
			}

			store, err := snapshot.NewStore(cfg.Cache.Dir)
			if err != nil {
				return err
			}
			defer store.Close()

			clearErr := store.Clear()
			if clearErr != nil {
				return clearErr
			}

			fmt.Fprintf(cmd.OutOrStdout(), "cache cleared: %s\n", cfg.Cache.Dir)

			return nil
		},
	}

	clearCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file")
	clearCmd.Flags().StringVar(&cacheDir, "cache-dir", config.DefaultCacheDir, "snapshot cache directory")

	return clearCmd
}
