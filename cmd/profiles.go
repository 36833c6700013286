package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var profilesCarrier string

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Show learned carrier format profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if profilesCarrier != "" {
			p, err := st.GetProfile(ctx, profilesCarrier)
			if err != nil {
				return eris.Wrap(err, "get profile")
			}
			if p == nil {
				return eris.Errorf("no profile for carrier %q", profilesCarrier)
			}
			return enc.Encode(p)
		}

		profiles, err := st.ListProfiles(ctx)
		if err != nil {
			return eris.Wrap(err, "list profiles")
		}
		return enc.Encode(profiles)
	},
}

func init() {
	profilesCmd.Flags().StringVar(&profilesCarrier, "carrier", "", "show a single carrier's profile")
	rootCmd.AddCommand(profilesCmd)
}
