package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gumloop/gumcp/internal/auth/enroll"
	"github.com/gumloop/gumcp/internal/auth/factory"
)

func newAuthCmd() *cobra.Command {
	var (
		backend      string
		callbackAddr string
	)

	cmd := &cobra.Command{
		Use:   "auth <service> <user_id>",
		Short: "Enroll credentials for a service and user",
		Long: `Run the enrollment ceremony for one (service, user) pair and store the
result in the configured credential backend.

The ceremony depends on the service's auth type:
  oauth2 services open a browser and run the authorization-code flow
  api_key services prompt for the key
  token-based-access services prompt for the signing material
  delegated trust services only verify the broker can mint a token`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			serviceName, userID := args[0], args[1]

			authCfg := factory.FromEnv()
			if backend != "" {
				authCfg.Backend = factory.Backend(backend)
			}

			flow := enroll.New(factory.New(authCfg),
				enroll.WithCallbackAddr(callbackAddr))
			return flow.Run(cmd.Context(), serviceName, userID)
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "Credential backend: nango, gumloop or local. Overrides the ENVIRONMENT env var.")
	cmd.Flags().StringVar(&callbackAddr, "callback-addr", enroll.DefaultCallbackAddr, "Listen address for the OAuth callback server")

	return cmd
}
