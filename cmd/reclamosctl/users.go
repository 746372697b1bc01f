package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spec-kit/reclamos-service/internal/api/dto"
	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/internal/portal"
)

func (c *cli) usersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"usuarios"},
		Short:   "Review accounts (moderadores only)",
	}

	var pendingOnly bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.enter(cmd.Context()); err != nil {
				return err
			}
			if err := c.portal.Navigate(portal.ViewUsuarios); err != nil {
				return err
			}
			users := c.portal.Users()
			if pendingOnly {
				users = c.portal.PendingUsers()
			}
			return c.printUsers(users)
		},
	}
	list.Flags().BoolVar(&pendingOnly, "pending", false, "only accounts awaiting approval")

	cmd.AddCommand(
		list,
		c.decideCommand("approve", "Approve a pending account", domain.AccountActive),
		c.decideCommand("reject", "Reject a pending account", domain.AccountRejected),
		c.userStatsCommand(),
	)
	return cmd
}

func (c *cli) decideCommand(use, short string, status domain.AccountStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " USER_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.enter(cmd.Context()); err != nil {
				return err
			}
			var err error
			if status == domain.AccountActive {
				err = c.portal.ApproveUser(cmd.Context(), args[0])
			} else {
				err = c.portal.RejectUser(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			c.printf("Usuario %s: %s\n", args[0], status)
			return nil
		},
	}
}

func (c *cli) userStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats USER_ID",
		Short: "Count the claims assigned to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.enter(cmd.Context()); err != nil {
				return err
			}
			s, err := c.portal.UserStats(args[0])
			if err != nil {
				return err
			}
			if c.asJSON {
				return c.printJSON(dto.UserStatsEnvelope{UserID: args[0], Stats: &s})
			}
			c.printf("Reclamos asignados: %d\n", s.Total)
			for _, status := range domain.ClaimStatuses {
				c.printf("  %-12s %d\n", status.Label(), s.ByStatus[status])
			}
			if s.LastActivity != nil {
				c.printf("Última actividad: %s\n", domain.FormatDate(*s.LastActivity))
			}
			return nil
		},
	}
}

func (c *cli) printUsers(users []domain.User) error {
	if c.asJSON {
		return c.printJSON(dto.UserListEnvelope{Users: dto.NewUserList(users)})
	}
	return c.table("ID\tNOMBRE\tEMAIL\tROL\tÁREA\tESTADO", func(w io.Writer) {
		for i := range users {
			u := &users[i]
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.FullName(), u.Email, u.Role, orDash(string(u.Area)), u.AccountStatus)
		}
	})
}
