// Package cli implements the esyr command-line interface. Commands esyr
// does not define itself are passed to esy with the merged package.json
// swapped in for the duration of the run.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/esyr/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

const usageText = `Usage: esyr <command>

where command is one of:
    init             # npm init-like, creates an empty package.json file
    esy              # direct invocaton of esy, no package.json overlay
    clean            # clean up files which were generated by esyr
    mkdunes          # generate files for dune/jbuilder (you shouldn't need this directly)
    gitignore        # propose possible content of a .gitignore file
    install          # run ` + "`esy install`" + ` with overlayed package.json
    build            # run ` + "`esy build`" + ` with overlayed package.json
    version          # print the esyr version
    help             # this menu, for ` + "`esy help`" + ` use ` + "`esyr esy help`" + `
    <anything else>  # run esy with the same commands with overlayed package.json

For more information see: https://github.com/cjdelisle/esyr#readme
`

// exitCodeError carries the build tool's exit code out of a command.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("esy exited with code %d", e.code)
}

// app is the state shared by all commands of one invocation.
type app struct {
	homeFlag string
	cfg      types.Config
	log      *zap.Logger
}

// NewRootCmd creates the top-level "esyr" command with all subcommands
// registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "esyr <command>",
		Short: "Run esy with an inherited, overlayed package.json",
		Args:  cobra.ArbitraryArgs,
		// Everything after the command name belongs to esy.
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRun:  a.teardown,
		RunE:               a.runPassThrough,
	}
	root.PersistentFlags().StringVar(&a.homeFlag, "home", "", "esyr home directory (default: ~/.esyr)")
	root.CompletionOptions.DisableDefaultCmd = true

	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd == root {
			printUsage(cmd.OutOrStdout())
			return
		}
		defaultHelp(cmd, args)
	})
	root.SetHelpCommand(newHelpCmd())

	root.AddCommand(newInitCmd())
	root.AddCommand(newCleanCmd(a))
	root.AddCommand(newGitignoreCmd(a))
	root.AddCommand(newMkDunesCmd(a))
	root.AddCommand(newEsyCmd(a))
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
// SIGINT and SIGTERM cancel the run; the original package.json is restored
// before exit.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, NewRootCmd(), os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, root *cobra.Command, args []string) int {
	// A nil slice makes cobra fall back to os.Args.
	if args == nil {
		args = []string{}
	}
	args, err := takeLeadingFlags(root, args)
	if err != nil {
		return exitCode(root.ErrOrStderr(), err)
	}
	root.SetArgs(args)
	err = root.ExecuteContext(ctx)
	return exitCode(root.ErrOrStderr(), err)
}

// takeLeadingFlags applies the esyr flags written before the command name
// and returns the remaining arguments. Root flag parsing is off, so without
// this they would reach esy.
func takeLeadingFlags(root *cobra.Command, args []string) ([]string, error) {
	for len(args) > 0 && strings.HasPrefix(args[0], "--") {
		name, value, hasValue := strings.Cut(args[0][2:], "=")
		flag := root.PersistentFlags().Lookup(name)
		if flag == nil {
			break
		}
		args = args[1:]
		if !hasValue {
			if len(args) == 0 {
				return nil, fmt.Errorf("flag needs an argument: --%s", name)
			}
			value, args = args[0], args[1:]
		}
		if err := root.PersistentFlags().Set(name, value); err != nil {
			return nil, fmt.Errorf("invalid value %q for --%s: %w", value, name, err)
		}
	}
	return args, nil
}

// exitCode reports err on w and maps it to a process exit code.
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return exitSuccess
	}

	var codeErr *exitCodeError
	var restoreErr *types.RestoreError
	var pathErr *os.PathError
	var linkErr *os.LinkError
	switch {
	case errors.As(err, &codeErr):
		return codeErr.code
	case errors.As(err, &restoreErr):
		fmt.Fprintf(w, "esyr FATAL: %s\n", err)
		fmt.Fprintf(w, "esyr FATAL: the original package.json is in %s, move it back by hand\n", restoreErr.Backup)
		return exitSysError
	case errors.Is(err, types.ErrNoProject):
		fmt.Fprintln(w, "esyr ERROR No package.json file was found, try: esyr init")
		return exitUserError
	case errors.Is(err, types.ErrCorruptCache),
		errors.As(err, &pathErr),
		errors.As(err, &linkErr):
		fmt.Fprintf(w, "esyr ERROR %s\n", err)
		return exitSysError
	}
	fmt.Fprintf(w, "esyr ERROR %s\n", err)
	return exitUserError
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// setup loads configuration and builds the logger before any command runs.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	home, err := resolveHomeDir(a.homeFlag)
	if err != nil {
		return fmt.Errorf("resolve home dir: %w", err)
	}
	cfg, err := loadConfig(home)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log = log
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) {
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// runPassThrough runs the overlay pipeline for commands esyr does not
// define itself.
func (a *app) runPassThrough(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		printUsage(cmd.OutOrStdout())
		return nil
	}
	proj, err := a.openProject(cmd)
	if err != nil {
		return err
	}
	code, err := proj.pipeline.Run(cmd.Context(), args)
	if err != nil {
		return err
	}
	if code != exitSuccess {
		return &exitCodeError{code: code}
	}
	return nil
}

func newHelpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "help",
		Short: "Show esyr usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			printUsage(cmd.OutOrStdout())
			return nil
		},
	}
}
