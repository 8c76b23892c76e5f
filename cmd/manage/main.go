// Command manage runs one-off administrative tasks against the configured
// store:
//
//	manage [-config dir] migrate
//	manage [-config dir] send-active-mailings
//	manage [-config dir] run-pass
//	manage [-config dir] add-user-to-managers <email>
//	manage [-config dir] create-managers-group
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/app"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/auth"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/config"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/logger"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/service"
)

type command struct {
	usage string
	// needsApp is false for commands that never touch the store.
	needsApp bool
	run      func(ctx context.Context, a *app.App, args []string, out io.Writer) error
}

var commands = map[string]command{
	"migrate": {
		usage:    "apply the database schema",
		needsApp: true,
		run:      migrate,
	},
	"send-active-mailings": {
		usage:    "send every running mailing whose window is open",
		needsApp: true,
		run:      sendActiveMailings,
	},
	"run-pass": {
		usage:    "run one periodic dispatch pass now",
		needsApp: true,
		run:      runPass,
	},
	"add-user-to-managers": {
		usage:    "grant the manager role to the user with the given email",
		needsApp: true,
		run:      addUserToManagers,
	},
	"create-managers-group": {
		usage: "show the permissions granted to managers",
		run:   createManagersGroup,
	},
}

// usageError carries the expected argument list of a command.
type usageError string

func (e usageError) Error() string { return "usage: manage " + string(e) }

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage(os.Stderr)
		os.Exit(2)
	}
	name, args := flag.Arg(0), flag.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		printUsage(os.Stderr)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.NewFromConfig(cfg.Logging).With().Str("component", "manage").Str("command", name).Logger()
	if !cfg.EnvFileLoaded {
		log.Debug().Msg("no .env file found, relying on OS environment variables")
	}

	ctx := context.Background()
	var a *app.App
	if cmd.needsApp {
		a, err = app.Open(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open store")
		}
	}

	err = cmd.run(ctx, a, args, os.Stdout)
	if a != nil {
		if cerr := a.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("cleanup failed")
		}
	}
	var uerr usageError
	if errors.As(err, &uerr) {
		fmt.Fprintln(os.Stderr, uerr.Error())
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: manage [-config dir] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, name := range []string{"migrate", "send-active-mailings", "run-pass", "add-user-to-managers", "create-managers-group"} {
		fmt.Fprintf(w, "  %-24s %s\n", name, commands[name].usage)
	}
}

// migrate is a no-op beyond app.Open, which applies the schema on connect.
func migrate(_ context.Context, a *app.App, _ []string, out io.Writer) error {
	if a.DB == nil {
		fmt.Fprintln(out, "In-memory store, nothing to migrate.")
		return nil
	}
	fmt.Fprintln(out, "Schema is up to date.")
	return nil
}

func sendActiveMailings(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	a.Pass.RunActive(ctx, out)
	return nil
}

func runPass(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	fmt.Fprintln(out, a.Pass.Run(ctx))
	return nil
}

func addUserToManagers(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return usageError("add-user-to-managers <email>")
	}
	email := args[0]

	already, err := a.Users.PromoteToManager(ctx, email)
	if errors.Is(err, service.ErrUserNotFound) {
		fmt.Fprintf(out, "User %q not found.\n", email)
		return nil
	}
	if err != nil {
		return err
	}
	if already {
		fmt.Fprintf(out, "User %q is already a manager.\n", email)
		return nil
	}
	fmt.Fprintf(out, "User %q added to managers.\n", email)
	return nil
}

// createManagersGroup exists for operators used to a separate group setup
// step. Manager permissions are compiled in, so it only reports them.
func createManagersGroup(_ context.Context, _ *app.App, _ []string, out io.Writer) error {
	perms := make([]string, 0, len(auth.RolePermissions[model.RoleManager]))
	for _, p := range auth.RolePermissions[model.RoleManager] {
		perms = append(perms, string(p))
	}
	fmt.Fprintln(out, "Managers need no setup; the role is built in.")
	fmt.Fprintf(out, "Permissions granted to managers: %s\n", strings.Join(perms, ", "))
	return nil
}
