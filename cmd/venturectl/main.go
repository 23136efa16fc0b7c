// Command venturectl runs operator actions against the production stores
// without going through the HTTP /admin routes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/venturehub/internal/config"
	"github.com/sakif/venturehub/internal/server"
)

var Version = "dev"

// operator is the subset of service.Operator the commands use.
type operator interface {
	VerifyListing(ctx context.Context, listingID string, verified bool) error
	ApproveKYC(ctx context.Context, userID string, approved bool) error
	ApproveInvestor(ctx context.Context, userID string, approved bool) error
	ApproveInvestee(ctx context.Context, userID string, approved bool) error
	SweepExpiring(ctx context.Context) (int, error)
}

// openFunc connects an operator for the given config file. The returned
// func releases it.
type openFunc func(ctx context.Context, configPath string) (operator, func(), error)

func openBackend(ctx context.Context, configPath string) (operator, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	backend, err := server.OpenBackend(ctx, cfg, nil, logger)
	if err != nil {
		return nil, nil, err
	}
	return backend.Operator, func() { _ = backend.Close(context.Background()) }, nil
}

func main() {
	if err := newRootCmd(openBackend).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(open openFunc) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "venturectl",
		Short:         "VentureHub operator tool",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "optional YAML config file")

	// withOperator opens the backend for the duration of one command.
	withOperator := func(run func(ctx context.Context, op operator, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			op, closeFn, err := open(ctx, configPath)
			if err != nil {
				return fmt.Errorf("connecting: %w", err)
			}
			defer closeFn()
			return run(ctx, op, cmd, args)
		}
	}

	rootCmd.AddCommand(decisionCmd("verify-listing <listing-id>", "Mark a listing verified so it shows in the marketplace",
		"verified", withOperator, func(op operator) func(context.Context, string, bool) error { return op.VerifyListing }))
	rootCmd.AddCommand(decisionCmd("approve-kyc <user-id>", "Approve a user's KYC submission",
		"approved", withOperator, func(op operator) func(context.Context, string, bool) error { return op.ApproveKYC }))
	rootCmd.AddCommand(decisionCmd("approve-investor <user-id>", "Approve an investor application",
		"approved", withOperator, func(op operator) func(context.Context, string, bool) error { return op.ApproveInvestor }))
	rootCmd.AddCommand(decisionCmd("approve-investee <user-id>", "Approve an investee application",
		"approved", withOperator, func(op operator) func(context.Context, string, bool) error { return op.ApproveInvestee }))

	rootCmd.AddCommand(&cobra.Command{
		Use:   "sweep-reminders",
		Short: "Send due subscription expiry reminders now",
		Args:  cobra.NoArgs,
		RunE: withOperator(func(ctx context.Context, op operator, cmd *cobra.Command, _ []string) error {
			sent, err := op.SweepExpiring(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reminders sent: %d\n", sent)
			return nil
		}),
	})

	return rootCmd
}

type runner func(run func(ctx context.Context, op operator, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error

// decisionCmd builds a one-argument approve/revoke command. --revoke
// records the negative decision.
func decisionCmd(use, short, state string, with runner, pick func(operator) func(context.Context, string, bool) error) *cobra.Command {
	var revoke bool
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: with(func(ctx context.Context, op operator, cmd *cobra.Command, args []string) error {
			if err := pick(op)(ctx, args[0], !revoke); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s=%t\n", args[0], state, !revoke)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "record the negative decision instead")
	return cmd
}
