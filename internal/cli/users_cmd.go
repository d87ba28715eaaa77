package cli

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quickops/quicksuite-admin/internal/domain"
	"github.com/quickops/quicksuite-admin/internal/manifest"
)

func newCreateUserCmd() *cobra.Command {
	var spec domain.UserSpec

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user and place it in a role group",
		Example: `  qsadmin create-user --username jdoe --email jdoe@example.com \
    --given-name Jane --family-name Doe --group QUICK_SUITE_PRO`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			outcomes, err := app.reconciler.CreateUser(cmd.Context(), spec)
			if err != nil {
				return err
			}
			printOutcomes(cmd.OutOrStdout(), outcomes)
			return outcomesError(outcomes)
		},
	}

	cmd.Flags().StringVar(&spec.Username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&spec.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&spec.GivenName, "given-name", "", "Given name (required)")
	cmd.Flags().StringVar(&spec.FamilyName, "family-name", "", "Family name (required)")
	cmd.Flags().StringVar(&spec.Group, "group", "", "Role group to place the user in")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("given-name")
	_ = cmd.MarkFlagRequired("family-name")

	return cmd
}

func newSyncUsersCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "sync-users",
		Short: "Reconcile the directory against a user manifest",
		Long: `Reads a JSON or YAML manifest of desired users and applies the minimal set
of changes. Sync is additive: users absent from the manifest are never deleted.`,
		Example: `  qsadmin sync-users --file users.yaml
  qsadmin sync-users --file s3://ops-bucket/manifests/users.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			loader := manifest.NewLoader(manifest.NewS3Fetcher(app.awsCfg), app.roles)
			m, err := loader.Load(cmd.Context(), file)
			if err != nil {
				return err
			}
			outcomes, err := app.reconciler.SyncUsers(cmd.Context(), m)
			if err != nil {
				return err
			}
			printOutcomes(cmd.OutOrStdout(), outcomes)
			return outcomesError(outcomes)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Manifest path, local or s3://bucket/key (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newMoveUserCmd() *cobra.Command {
	var username, group string

	cmd := &cobra.Command{
		Use:     "move-user",
		Short:   "Move an existing user into a different role group",
		Example: `  qsadmin move-user --username jdoe --group QUICK_SUITE_ADMIN`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			outcomes, err := app.reconciler.MoveUser(cmd.Context(), username, group)
			if err != nil {
				return err
			}
			printOutcomes(cmd.OutOrStdout(), outcomes)
			return outcomesError(outcomes)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&group, "group", "", "Target role group (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}

func newDeleteUserCmd() *cobra.Command {
	var username, userID string

	cmd := &cobra.Command{
		Use:   "delete-user",
		Short: "Delete a user by username or user ID",
		Long:  "Deleting a user that does not exist is reported as skipped, not an error.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (username == "") == (userID == "") {
				return fmt.Errorf("exactly one of --username or --user-id is required")
			}
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			var outcomes domain.Outcomes
			if username != "" {
				outcomes, err = app.reconciler.DeleteUser(cmd.Context(), username)
				if err != nil {
					return err
				}
			} else {
				op := domain.Operation{Kind: domain.OpDeleteUser, Username: userID}
				switch err := app.directory.DeleteUser(cmd.Context(), userID); {
				case domain.IsNotFound(err):
					outcomes = domain.Outcomes{{Operation: op, Status: domain.OutcomeSkipped, Reason: "user does not exist"}}
				case err != nil:
					return err
				default:
					outcomes = domain.Outcomes{{Operation: op, Status: domain.OutcomeSucceeded}}
				}
			}

			printOutcomes(cmd.OutOrStdout(), outcomes)
			return outcomesError(outcomes)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username of the user to delete")
	cmd.Flags().StringVar(&userID, "user-id", "", "Directory ID of the user to delete")

	return cmd
}

func newListUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-users",
		Short: "List directory users and their role groups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := app.reconciler.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			users := snap.Users
			sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USERNAME\tEMAIL\tDISPLAY NAME\tROLE GROUPS")
			for _, u := range users {
				groups := snap.RoleGroupNamesOf(u.ID)
				sort.Strings(groups)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.Username, u.Email, u.DisplayName, strings.Join(groups, ","))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d users\n", len(users))
			return nil
		},
	}
}
