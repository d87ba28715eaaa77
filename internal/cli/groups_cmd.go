package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSetupGroupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup-groups",
		Short: "Create the role groups that do not exist yet",
		Long:  "Ensures every mapped role group exists in the identity directory. Existing groups are reported as skipped.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			outcomes, err := app.reconciler.EnsureRoleGroups(cmd.Context())
			if err != nil {
				return err
			}
			printOutcomes(cmd.OutOrStdout(), outcomes)
			return outcomesError(outcomes)
		},
	}
}

func newListGroupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-groups",
		Short: "List directory groups and their mapped workspace roles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			groups, err := app.directory.ListGroups(cmd.Context())
			if err != nil {
				return err
			}
			sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tGROUP ID\tWORKSPACE ROLE")
			for _, g := range groups {
				role := "-"
				if r, ok := app.roles.RoleFor(g.Name); ok {
					role = string(r)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", g.Name, g.ID, role)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d groups\n", len(groups))
			return nil
		},
	}
}

func newAssignRolesCmd() *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "assign-roles",
		Short: "Grant each role group its workspace role",
		Long: `Assigns the mapped workspace role to every role group in the given
namespace. Assignments that already exist are reported as skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			if namespace == "" {
				namespace = app.cfg.Namespace
			}
			outcomes, err := app.reconciler.AssignWorkspaceRoles(cmd.Context(), namespace)
			if err != nil {
				return err
			}
			printOutcomes(cmd.OutOrStdout(), outcomes)
			return outcomesError(outcomes)
		},
	}

	cmd.Flags().StringVar(&namespace, "namespace", "", "Workspace namespace (defaults to WORKSPACE_NAMESPACE)")

	return cmd
}
