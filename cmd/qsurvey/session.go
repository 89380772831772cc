package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/qsurvey/internal/session"
)

var (
	loginUsername      string
	loginPasswordStdin bool
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE:  runLoginCmd,
	}
	cmd.Flags().StringVar(&loginUsername, "username", "", "username (prompted when empty)")
	cmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func runLoginCmd(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	if _, err := e.gate.Start(ctx); err != nil {
		e.log.Warnw("session check failed", "error", err)
	}
	out := cmd.OutOrStdout()
	if e.gate.Status() == session.Authenticated {
		_, err := fmt.Fprintf(out, "Already logged in as %s. Run: qsurvey logout\n", e.gate.Identity().DisplayName("unknown user"))
		return err
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	username := strings.TrimSpace(loginUsername)
	if username == "" {
		logErrf("Username: ")
		if username, err = readLine(reader); err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(username)
	}
	password, err := readPassword(cmd, reader)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if err := e.gate.Login(ctx, e.client, username, password); err != nil {
		e.log.Infow("login failed", "username", username, "error", err)
		return errors.New(e.gate.Message())
	}
	_, err = fmt.Fprintf(out, "Logged in as %s\n", e.gate.Identity().DisplayName(username))
	return err
}

func readPassword(cmd *cobra.Command, reader *bufio.Reader) (string, error) {
	if !loginPasswordStdin {
		if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			logErrf("Password: ")
			b, err := term.ReadPassword(int(f.Fd()))
			logErrln()
			return string(b), err
		}
	}
	return readLine(reader)
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Erase the stored session token",
		Args:  cobra.NoArgs,
		RunE:  runLogoutCmd,
	}
}

func runLogoutCmd(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	status, err := e.gate.Start(ctx)
	if err != nil {
		e.log.Warnw("session check failed", "error", err)
	}
	if status != session.Authenticated {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
		return err
	}
	if err := e.gate.Logout(ctx); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return err
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session state",
		Args:  cobra.NoArgs,
		RunE:  runStatusCmd,
	}
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	status, err := e.gate.Start(cmd.Context())
	if err != nil {
		e.log.Warnw("session check failed", "error", err)
	}
	lines := []string{
		fmt.Sprintf("server: %s", e.client.BaseURL()),
		fmt.Sprintf("status: %s", status),
	}
	if status == session.Authenticated {
		id := e.gate.Identity()
		lines = append(lines, fmt.Sprintf("user: %s", id.DisplayName("unknown")))
		if !id.ExpiresAt.IsZero() {
			state := "expires"
			if id.Expired(time.Now()) {
				state = "expired"
			}
			lines = append(lines, fmt.Sprintf("token: %s %s", state, humanize.Time(id.ExpiresAt)))
		}
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
	return err
}
