package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pcprimedz/dashboard"
	"github.com/spf13/cobra"
)

func passwordFlag(cmd *cobra.Command) (string, error) {
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = os.Getenv("DASHBOARD_PASSWORD")
	}
	if password == "" {
		return "", errors.New("password required: pass --password or set DASHBOARD_PASSWORD")
	}
	return password, nil
}

func (a *app) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and store the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordFlag(cmd)
			if err != nil {
				return err
			}
			user, err := a.client.Login(cmd.Context(), args[0], password)
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", user.Username, roleLabel(user.Role))
			if !a.client.IsAdmin() {
				fmt.Fprintln(cmd.ErrOrStderr(), dashboard.MsgAdminRequired)
			}
			return nil
		},
	}
	cmd.Flags().StringP("password", "p", "", "password (or DASHBOARD_PASSWORD)")
	return cmd
}

func (a *app) registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <username> <email>",
		Short: "Create an admin account and sign in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordFlag(cmd)
			if err != nil {
				return err
			}
			user, err := a.client.Register(cmd.Context(), args[0], args[1], password)
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", user.Username)
			if !a.client.IsAdmin() {
				fmt.Fprintln(cmd.ErrOrStderr(), dashboard.MsgRegistrationNoRole)
			}
			return nil
		},
	}
	cmd.Flags().StringP("password", "p", "", "password (or DASHBOARD_PASSWORD)")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				return a.fail(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			store := a.client.Store()
			if !store.Authenticated() {
				fmt.Fprintln(out, "Not logged in")
				return nil
			}
			name := "(unknown)"
			if user := store.User(); user != nil && user.Username != "" {
				name = user.Username
			}
			fmt.Fprintf(out, "%s (%s) admin=%t\n", name, roleLabel(a.client.Role()), a.client.IsAdmin())
			return nil
		},
	}
}

func roleLabel(role string) string {
	if role == "" {
		return "no role"
	}
	return role
}
