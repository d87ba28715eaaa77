package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quickops/quicksuite-admin/internal/config"
	"github.com/quickops/quicksuite-admin/internal/domain"
	"github.com/quickops/quicksuite-admin/internal/repository/awsconn"
	"github.com/quickops/quicksuite-admin/internal/repository/identitycenter"
	"github.com/quickops/quicksuite-admin/internal/repository/quicksuite"
	"github.com/quickops/quicksuite-admin/internal/service"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "qsadmin",
		Short:         "Quick Suite workspace administration",
		Long:          "Manage Quick Suite workspace users, role groups, and workspace role assignments.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newSetupGroupsCmd(),
		newCreateUserCmd(),
		newSyncUsersCmd(),
		newMoveUserCmd(),
		newDeleteUserCmd(),
		newListUsersCmd(),
		newListGroupsCmd(),
		newAssignRolesCmd(),
		newWorkspaceUsersCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "qsadmin %s (commit %s)\n", version, commit)
			return nil
		},
	}
}

// app wires configuration and AWS-backed clients for one command invocation.
type app struct {
	cfg          *config.Config
	awsCfg       aws.Config
	logger       zerolog.Logger
	directory    domain.DirectoryClient
	controlPlane domain.ControlPlaneClient
	roles        domain.RoleMapping
	reconciler   *service.ReconcileService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconn.Load(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}

	accountID := cfg.AccountID
	if accountID == "" {
		accountID, err = awsconn.ResolveAccountID(ctx, awsCfg)
		if err != nil {
			return nil, err
		}
	}

	identityStoreID := cfg.IdentityStoreID
	if identityStoreID == "" {
		instance, err := identitycenter.NewInstanceResolver(awsCfg).ResolveInstance(ctx, cfg.InstanceARN)
		if err != nil {
			return nil, err
		}
		identityStoreID = instance.IdentityStoreID
	}

	directory := identitycenter.NewDirectory(awsCfg, identityStoreID)
	controlPlane := quicksuite.NewControlPlane(awsCfg, accountID)
	roles := domain.DefaultRoleMapping()
	reconciler := service.NewReconcileService(directory, controlPlane, roles, log.Logger, service.ReconcileConfig{
		Concurrency:       cfg.SyncConcurrency,
		RequestsPerSecond: cfg.RequestsPerSecond,
		RequestBurst:      cfg.RequestBurst,
	})

	return &app{
		cfg:          cfg,
		awsCfg:       awsCfg,
		logger:       log.Logger,
		directory:    directory,
		controlPlane: controlPlane,
		roles:        roles,
		reconciler:   reconciler,
	}, nil
}

// printOutcomes writes one line per operation plus a summary.
func printOutcomes(out io.Writer, outcomes domain.Outcomes) {
	for _, o := range outcomes {
		marker := "✓"
		switch o.Status {
		case domain.OutcomeSkipped:
			marker = "⚠"
		case domain.OutcomeFailed:
			marker = "✗"
		}
		if o.Reason != "" {
			fmt.Fprintf(out, "%s %s (%s)\n", marker, o.Operation, o.Reason)
		} else {
			fmt.Fprintf(out, "%s %s\n", marker, o.Operation)
		}
	}
	fmt.Fprintf(out, "%d succeeded, %d skipped, %d failed\n",
		outcomes.Succeeded(), outcomes.Skipped(), outcomes.Failed())
}

// outcomesError turns per-item failures into a non-zero exit.
func outcomesError(outcomes domain.Outcomes) error {
	if n := outcomes.Failed(); n > 0 {
		return fmt.Errorf("%d of %d operations failed", n, len(outcomes))
	}
	return nil
}
