package main

import (
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gate4ai/leadsuite/stubcrm"
)

func newStubCmd(root *rootOptions) *cobra.Command {
	var addr, username, password, passwordHash string
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Serve the stub CRM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := root.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			var opts []stubcrm.Option
			switch {
			case passwordHash != "":
				opts = append(opts, stubcrm.WithPasswordHash(username, []byte(passwordHash)))
			case username != "" || password != "":
				opts = append(opts, stubcrm.WithCredentials(username, password))
			}

			l, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", addr, err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("Stub CRM listening", zap.String("addr", l.Addr().String()))
			return stubcrm.New(logger, opts...).Serve(ctx, l)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	cmd.Flags().StringVar(&username, "username", "", "Only accept this username")
	cmd.Flags().StringVar(&password, "password", "", "Only accept this password")
	cmd.Flags().StringVar(&passwordHash, "password-hash", "", "Only accept the password with this bcrypt hash")
	cmd.MarkFlagsMutuallyExclusive("password", "password-hash")
	return cmd
}
