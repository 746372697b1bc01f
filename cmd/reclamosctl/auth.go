package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/reclamos-service/internal/api/dto"
	"github.com/spec-kit/reclamos-service/internal/portal"
)

func (c *cli) loginCommand() *cobra.Command {
	var form portal.LoginForm
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if form.Password == "" {
				form.Password = os.Getenv("RECLAMOS_PASSWORD")
			}
			user, err := c.portal.Login(cmd.Context(), form)
			if err != nil {
				return err
			}
			if c.asJSON {
				return c.printJSON(dto.AuthResponse{
					Session: dto.NewSessionResponse(c.portal.Session(), time.Now()),
					User:    dto.NewUserResponse(user),
				})
			}
			c.printf("Sesión iniciada como %s (%s)\n", user.FullName(), user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "account password (or RECLAMOS_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.portal.Logout(cmd.Context())
			c.printf("Sesión cerrada\n")
			return nil
		},
	}
}

func (c *cli) sessionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show who is signed in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := c.portal.Start(cmd.Context())
			if err != nil {
				return err
			}
			if c.asJSON {
				out := dto.AuthResponse{Session: dto.NewSessionResponse(c.portal.Session(), time.Now())}
				if user != nil {
					out.User = dto.NewUserResponse(user)
				}
				return c.printJSON(out)
			}
			if user == nil {
				c.printf("Sin sesión activa\n")
				return nil
			}
			views := portal.AllowedViews(user)
			c.printf("%s <%s> rol=%s\n", user.FullName(), user.Email, user.Role)
			for _, v := range views {
				c.printf("  - %s\n", v.Label())
			}
			return nil
		},
	}
}

func (c *cli) signupCommand() *cobra.Command {
	var form portal.RegisterForm
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Request an account; a moderator must approve it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if form.ConfirmPassword == "" {
				form.ConfirmPassword = form.Password
			}
			user, err := c.portal.Register(cmd.Context(), form)
			if err != nil {
				return err
			}
			if c.asJSON {
				return c.printJSON(dto.UserEnvelope{User: dto.NewUserResponse(user)})
			}
			c.printf("Cuenta %s creada, estado %s\n", user.Email, user.AccountStatus)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.Nombre, "nombre", "", "first name")
	f.StringVar(&form.Apellido, "apellido", "", "last name")
	f.StringVar(&form.Email, "email", "", "email")
	f.StringVar(&form.Password, "password", "", "password, at least 6 characters")
	f.StringVar(&form.ConfirmPassword, "confirm-password", "", "password confirmation (defaults to --password)")
	f.StringVar(&form.Telefono, "telefono", "", "phone number")
	f.StringVar(&form.Role, "role", "usuario", "moderador, externo or usuario")
	f.StringVar(&form.Area, "area", "", "municipal area, required for externo")
	return cmd
}
