package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newWhoisCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whois",
		Short: "Show the local users connected to remote users of a provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			providerID, _ := cmd.Flags().GetString("provider")
			ids, _ := cmd.Flags().GetStringSlice("id")
			if providerID == "" || len(ids) == 0 {
				return errors.New("--provider and at least one --id are required")
			}

			userIDs, err := a.users.FindUserIDsConnectedTo(cmd.Context(), providerID, ids)
			if err != nil {
				return err
			}
			if len(userIDs) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No local user is connected")
				return nil
			}
			for _, id := range userIDs {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().StringP("provider", "p", "", "provider id")
	cmd.Flags().StringSlice("id", nil, "provider user id, repeatable or comma separated")
	return cmd
}
