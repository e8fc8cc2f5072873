package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/taskdeck/taskdeck/internal/authstate"
	"github.com/taskdeck/taskdeck/internal/model"
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and log in",
	Args:  cobra.NoArgs,
	RunE:  runSignup,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password",
	Long: `Log in with email and password.

The password is prompted for when stdin is a terminal and read from the
first line of stdin otherwise.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var authEmail string

func init() {
	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd, whoamiCmd)

	signupCmd.Flags().StringVar(&authEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&authEmail, "email", "", "Account email")
	_ = signupCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("email")
}

func runSignup(cmd *cobra.Command, args []string) error {
	return authenticate(cmd, true)
}

func runLogin(cmd *cobra.Command, args []string) error {
	return authenticate(cmd, false)
}

func authenticate(cmd *cobra.Command, create bool) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	creds := model.Credentials{Email: authEmail, Password: password}
	var s *model.Session
	if create {
		s, err = c.SignUp(cmd.Context(), creds)
	} else {
		s, err = c.SignIn(cmd.Context(), creds)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successStyle.Render("Logged in as"), s.User.Email)
	return nil
}

// readPassword prompts on a terminal without echo, or reads one line.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	if c.Session() == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
		return nil
	}
	if err := c.SignOut(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return nil
}

// resolveSession waits for a definite auth state. The tracker keeps retrying
// a failed lookup, but a one-shot command reports the first failure instead.
func resolveSession(ctx context.Context, tracker *authstate.Tracker) (authstate.State, error) {
	defer tracker.Close()
	updates, stop := tracker.Watch()
	defer stop()
	if err := tracker.Start(ctx); err != nil {
		return authstate.State{}, err
	}

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return authstate.State{}, authstate.ErrClosed
			}
			if st.Err != nil {
				return authstate.State{}, st.Err
			}
			if st.Status != authstate.Loading {
				return st, nil
			}
		case <-ctx.Done():
			return authstate.State{}, ctx.Err()
		}
	}
}

func runWhoami(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	st, err := resolveSession(cmd.Context(), authstate.New(c))
	if err != nil {
		return err
	}
	if st.Status != authstate.SignedIn {
		fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
		return nil
	}

	id := st.Identity
	if jsonOutput {
		return encodeJSON(cmd.OutOrStdout(), id)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n%s %s\n",
		labelStyle.Render("Email:"), id.Email,
		labelStyle.Render("ID:   "), id.UserID)
	return nil
}
