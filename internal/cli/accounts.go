package cli

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/mrlokans/mymanga/internal/config"
)

// SignupCommand registers a reader account.
type SignupCommand struct {
	Config       *config.Config
	DatabasePath string
	Out          io.Writer

	Name        string
	Credentials credentials
}

func NewSignupCommand(cfg *config.Config) *SignupCommand {
	return &SignupCommand{Config: cfg}
}

func (cmd *SignupCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.Config.Database.Path, "Path to the library database file")
	fs.StringVar(&cmd.Name, "name", "", "Display name (required)")
	cmd.Credentials.register(fs)

	fs.Usage = usage(fs, "signup -name <name> -email <email> -password <pw>",
		"Create a reader account. Passwords must be at least 8 characters.")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Name == "" {
		return fmt.Errorf("required flag -name not provided")
	}
	return cmd.Credentials.require()
}

func (cmd *SignupCommand) Run(ctx context.Context) error {
	lib, err := openLibrary(cmd.Config, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer lib.Close()

	session, err := lib.auth.Signup(ctx, cmd.Name, cmd.Credentials.Email, cmd.Credentials.Password)
	if err != nil {
		return err
	}
	defer lib.auth.Logout(session)

	role := "reader"
	if session.IsAdmin() {
		role = "administrator"
	}
	fmt.Fprintf(stdout(cmd.Out), "Created %s account %s for %s\n", role, session.AccountID(), session.Account.Email)
	return nil
}

// LoginCommand checks a set of credentials. On first use with the demo admin
// credentials it creates the administrator account.
type LoginCommand struct {
	Config       *config.Config
	DatabasePath string
	Out          io.Writer

	Credentials credentials
}

func NewLoginCommand(cfg *config.Config) *LoginCommand {
	return &LoginCommand{Config: cfg}
}

func (cmd *LoginCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.Config.Database.Path, "Path to the library database file")
	cmd.Credentials.register(fs)

	fs.Usage = usage(fs, "login -email <email> -password <pw>", "Verify account credentials.")

	if err := fs.Parse(args); err != nil {
		return err
	}
	return cmd.Credentials.require()
}

func (cmd *LoginCommand) Run(ctx context.Context) error {
	lib, err := openLibrary(cmd.Config, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer lib.Close()

	session, err := lib.auth.Login(ctx, cmd.Credentials.Email, cmd.Credentials.Password)
	if err != nil {
		return err
	}
	defer lib.auth.Logout(session)

	fmt.Fprintf(stdout(cmd.Out), "Signed in as %s <%s>", session.Account.DisplayName, session.Account.Email)
	if session.IsAdmin() {
		fmt.Fprint(stdout(cmd.Out), " (administrator)")
	}
	fmt.Fprintln(stdout(cmd.Out))
	return nil
}
