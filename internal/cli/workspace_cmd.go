package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quickops/quicksuite-admin/internal/domain"
)

func newWorkspaceUsersCmd() *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "workspace-users",
		Short: "List workspace-level users and a per-role summary",
		Long: `Shows the users the workspace control plane knows about, as opposed to the
identity directory. Useful for spotting users who have not completed first
sign-in or whose role does not match their role group.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			if namespace == "" {
				namespace = app.cfg.Namespace
			}

			users, err := app.controlPlane.ListWorkspaceUsers(cmd.Context(), namespace)
			if err != nil {
				return err
			}
			sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USERNAME\tEMAIL\tROLE\tACTIVE")
			byRole := make(map[domain.WorkspaceRole]int)
			for _, u := range users {
				byRole[u.Role]++
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", u.Username, u.Email, u.Role, u.Active)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d workspace users\n", len(users))
			for _, role := range []domain.WorkspaceRole{domain.RoleAdmin, domain.RoleAuthor, domain.RoleReader} {
				if n := byRole[role]; n > 0 {
					fmt.Fprintf(out, "  %s: %d\n", role, n)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&namespace, "namespace", "", "Workspace namespace (defaults to WORKSPACE_NAMESPACE)")

	return cmd
}
