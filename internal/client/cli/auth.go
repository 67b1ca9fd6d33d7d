package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bookshelf/bookapp/internal/core/domain"
	"github.com/bookshelf/bookapp/internal/validation"
)

func (r *root) loginCmd() *cobra.Command {
	var creds domain.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := r.valid.Validate(creds); err != nil {
				return errors.New("Please enter both username and password")
			}
			res, err := r.app.Session.Login(cmd.Context(), creds.UserName, creds.Password)
			if err != nil {
				return r.apiFailure(err, "Login failed. Please try again.")
			}
			return r.out.profile(res.Profile())
		},
	}
	cmd.Flags().StringVarP(&creds.UserName, "username", "u", "", "User name")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "Password")
	return cmd
}

func (r *root) registerCmd() *cobra.Command {
	var (
		reg      domain.Registration
		fullName string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if name := strings.TrimSpace(fullName); name != "" {
				reg.FullName = &name
			}
			if err := r.valid.Validate(reg); err != nil {
				return registrationMessage(err)
			}
			res, err := r.app.Session.Register(cmd.Context(), reg)
			if err != nil {
				return r.apiFailure(err, "Registration failed")
			}
			return r.out.profile(res.Profile())
		},
	}
	cmd.Flags().StringVar(&reg.UserName, "username", "", "User name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&reg.Password, "password", "", "Password (at least 6 characters)")
	cmd.Flags().StringVar(&fullName, "full-name", "", "Full name")
	return cmd
}

// registrationMessage reports the first broken rule in form order.
func registrationMessage(err error) error {
	var ve *validation.Error
	if !errors.As(err, &ve) {
		return err
	}
	switch {
	case ve.Has("notblank"), ve.Has("required"):
		return errors.New("All fields are required.")
	case ve.Has("email"):
		return errors.New("Please enter a valid email address.")
	case ve.Has("min"):
		return errors.New("Password must be at least 6 characters.")
	}
	return ve
}

func (r *root) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := r.app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			if r.out.structured() {
				return r.out.profile(nil)
			}
			r.out.line("Signed out.")
			return nil
		},
	}
}

func (r *root) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return r.out.profile(r.app.Session.User())
		},
	}
}
