package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opuscine/watchtogether-sdk-go/watchtogether/rest"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity used for watch-together rooms",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client := rest.NewClient(viper.GetString(restURLKey))
		p, err := client.ResolveIdentity(ctx)
		if err != nil {
			if errors.Is(err, rest.ErrUnauthorized) {
				fmt.Fprintln(os.Stderr, "Not logged in.")
			}
			return err
		}

		fmt.Printf("Nickname: %s\n", p.Nickname)
		fmt.Printf("Avatar:   %s\n", p.AvatarURL(viper.GetString(staticRootKey)))
		if p.Email != "" {
			fmt.Printf("Email:    %s\n", p.Email)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
