package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/veridianlabs/trustlens/pkg/models"
)

func NewConfigureCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Write a default configuration file",
		Long:  `Write the default TrustLens configuration to disk for editing.`,
		RunE:  runConfigure,
	}

	cmd.Flags().StringP("path", "p", "", "Destination path (default is $HOME/.trustlens/config.yaml)")
	cmd.Flags().Bool("force", false, "Overwrite an existing configuration file")

	return cmd
}

func runConfigure(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")
	force, _ := cmd.Flags().GetBool("force")

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("get home dir: %w", err)
		}
		path = filepath.Join(home, ".trustlens", "config.yaml")
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	cfg := models.DefaultConfig()
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("Configuration written: %s\n", path)
	return nil
}
