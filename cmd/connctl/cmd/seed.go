package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"go.pilab.hu/connections/domain"
)

// seedFile is the document read by `connctl seed`.
type seedFile struct {
	Connections []seedEntry `yaml:"connections"`
}

// seedEntry is one connection to load. A zero rank appends at the next free rank.
type seedEntry struct {
	UserID string `yaml:"user_id"`
	Rank   int    `yaml:"rank,omitempty"`

	domain.ConnectionRecord `yaml:",inline"`
}

func newSeedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Bulk load connections from a YAML file",
		Example: `  connctl seed --file connections.yaml

  # connections.yaml
  connections:
    - user_id: u42
      rank: 1
      provider_id: paypal
      provider_user_id: pp1
      display_name: Jane`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				return errors.New("--file is required")
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read seed file: %w", err)
			}

			var seed seedFile
			if err := yaml.Unmarshal(raw, &seed); err != nil {
				return fmt.Errorf("parse seed file %s: %w", path, err)
			}

			for i, entry := range seed.Connections {
				record := entry.ConnectionRecord
				if err := a.seedOne(cmd, entry.UserID, &record, entry.Rank); err != nil {
					return fmt.Errorf("connection #%d (%s for %s): %w", i+1, record.Key(), entry.UserID, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d connections\n", len(seed.Connections))
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "", "YAML file with the connections to load")
	return cmd
}

func (a *app) seedOne(cmd *cobra.Command, userID string, record *domain.ConnectionRecord, rank int) error {
	ctx := cmd.Context()
	if rank > 0 {
		return a.users.AddConnectionAtRank(ctx, userID, record, rank)
	}

	repo, err := a.users.ConnectionRepository(ctx, userID)
	if err != nil {
		return err
	}
	_, err = repo.AddConnection(ctx, record)
	return err
}
