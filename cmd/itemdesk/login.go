package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/omarluq/itemdesk/internal/apiclient"
	"github.com/omarluq/itemdesk/internal/credentials"
	"github.com/omarluq/itemdesk/internal/view"
)

var errEmptyPassword = errors.New("password is required")

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the backend",
	Long: `Log in with a username and password. The session cookies are stored
in the session file so later commands run as the same user.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the backend session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringP("username", "u", "", "username")
	loginCmd.Flags().Bool("password-stdin", false, "read the password from stdin")
	_ = loginCmd.MarkFlagRequired("username")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	username, err := cmd.Flags().GetString("username")
	if err != nil {
		return fmt.Errorf("failed to get username flag: %w", err)
	}
	fromStdin, err := cmd.Flags().GetBool("password-stdin")
	if err != nil {
		return fmt.Errorf("failed to get password-stdin flag: %w", err)
	}

	password, err := readPassword(cmd, fromStdin)
	if err != nil {
		return err
	}

	sess, err := openSession(cmd)
	if err != nil {
		return err
	}

	detail, err := sess.client.Login(cmd.Context(), username, password)
	if err != nil {
		view.Fail(cmd.ErrOrStderr(), err.Error())
		return err
	}
	if err := sess.save(); err != nil {
		return err
	}

	if detail == "" {
		detail = "Logged in"
	}
	view.OK(cmd.OutOrStdout(), fmt.Sprintf("%s as %s", detail, username))
	return nil
}

// readPassword prompts on a terminal without echo, or reads one line from
// the command input.
func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	var password string
	if !fromStdin && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		password = string(raw)
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if password == "" {
		return "", errEmptyPassword
	}
	return password, nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}

	err = sess.client.Logout(cmd.Context())
	if err != nil && !apiclient.IsKind(err, apiclient.KindUnauthenticated) {
		view.Fail(cmd.ErrOrStderr(), err.Error())
		return explain(err)
	}
	if err := credentials.RemoveSession(sess.path); err != nil {
		return err
	}

	view.OK(cmd.OutOrStdout(), "Logged out")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}

	user, err := sess.client.CurrentUser(cmd.Context())
	if err != nil {
		view.Fail(cmd.ErrOrStderr(), err.Error())
		return explain(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), view.UserDetail(user))
	return sess.save()
}
