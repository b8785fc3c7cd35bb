package cmd

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"go.pilab.hu/connections/domain"
	"go.pilab.hu/connections/dto"
)

func newListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List the connections of a local user in rank order",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, _ := cmd.Flags().GetString("user")
			providerID, _ := cmd.Flags().GetString("provider")
			output, _ := cmd.Flags().GetString("output")
			if userID == "" {
				return errors.New("--user is required")
			}

			repo, err := a.users.ConnectionRepository(cmd.Context(), userID)
			if err != nil {
				return err
			}

			var providers []string
			if providerID != "" {
				providers = []string{providerID}
			}
			all, err := repo.FindAllConnections(cmd.Context(), providers)
			if err != nil {
				return err
			}

			now := time.Now()
			views := make(map[string][]dto.ConnectionResponse, len(all))
			for p, records := range all {
				views[p] = dto.ToConnectionResponses(records, now)
			}

			switch output {
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				defer enc.Close()
				return enc.Encode(views)
			case "table", "":
				return printTable(cmd, all)
			default:
				return fmt.Errorf("unknown --output %q, use table or yaml", output)
			}
		},
	}
	cmd.Flags().StringP("user", "u", "", "local user id")
	cmd.Flags().StringP("provider", "p", "", "only list connections to this provider")
	cmd.Flags().StringP("output", "o", "table", "output format: table or yaml")
	return cmd
}

func printTable(cmd *cobra.Command, all map[string][]*domain.ConnectionRecord) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tPOSITION\tPROVIDER USER\tDISPLAY NAME\tEXPIRES")

	for _, providerID := range slices.Sorted(maps.Keys(all)) {
		for i, r := range all[providerID] {
			expires := "-"
			if r.ExpireTime != nil {
				expires = r.ExpireTime.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", providerID, i+1, r.ProviderUserID, r.DisplayName, expires)
		}
	}
	return w.Flush()
}
