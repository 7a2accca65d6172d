// Package cmd implements the rewrite CLI.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Lucretiel/rewrite/config"
	"github.com/Lucretiel/rewrite/engine"
	"github.com/Lucretiel/rewrite/internal/observability"
)

// Version metadata stamped via SetVersionInfo before Execute builds the
// command.
var (
	version = "dev"
	commit  = "none"
)

// options collects the flag values of a single invocation.
type options struct {
	cfgFile string
	verbose bool

	noOp     bool
	noEnv    bool
	useShell bool
	useStdin bool

	scratchDir string
	useTmp     bool
	useCwd     bool

	envFile string
	runAs   string
}

// newRootCmd builds the root command around a fresh flag set. pflag keeps
// the position of '--' from the last parse on the FlagSet, so commands are
// built per invocation rather than shared.
func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "rewrite [flags] file -- command [args...]",
		Short: "Rewrite a file in place with the output of a command",
		Long: `rewrite feeds a file to a command and replaces the file with whatever the
command prints. The command reads the current contents on standard input and
writes the new contents to standard output; the file is only touched if the
command exits 0, and the swap is a single atomic rename, so no reader ever
sees a half-written file.

Examples:
  rewrite notes.txt -- sort -u
  rewrite config.json -- jq '.version = "2.0"'
  rewrite -s access.log -- 'grep -v healthz | tail -n 1000'`,
		Args:          validateArgs,
		RunE:          opts.run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Version = version
	cmd.SetVersionTemplate(fmt.Sprintf("rewrite %s (commit: %s)\n", version, commit))

	cmd.Flags().BoolVarP(&opts.noOp, "no-op", "n", false, "run the command but leave the file untouched")
	cmd.Flags().BoolVarP(&opts.noEnv, "no-env", "E", false, "do not set REWRITE_* variables for the command")
	cmd.Flags().BoolVarP(&opts.useShell, "shell", "s", false, "join the command tokens and run them through the shell")
	cmd.Flags().BoolVarP(&opts.useStdin, "stdin", "i", false, "give the command this process's stdin instead of the file")
	cmd.Flags().StringVarP(&opts.scratchDir, "dir", "d", "", "stage the scratch file in this directory")
	cmd.Flags().BoolVarP(&opts.useTmp, "tmp", "t", false, "stage the scratch file in the system temp directory")
	cmd.Flags().BoolVarP(&opts.useCwd, "cwd", "C", false, "stage the scratch file in the current working directory")
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "load extra KEY=VALUE bindings for the command (missing file is ignored)")
	cmd.Flags().StringVar(&opts.runAs, "user", "", "run the command as this user (requires privileges)")
	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default $REWRITE_CONFIG, then the user config dir)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.MarkFlagsMutuallyExclusive("dir", "tmp", "cwd")
	return cmd
}

// Execute runs the root command and maps the result onto the process exit
// status: a declined rewrite propagates the command's own code, every other
// failure is reported on one stderr line and exits 1.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr *engine.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "rewrite: %v\n", err)
		os.Exit(1)
	}
}

// SetVersionInfo sets the version and commit shown by --version.
func SetVersionInfo(v, c string) {
	version, commit = v, c
}

// validateArgs enforces the "file -- command [args...]" shape.
func validateArgs(cmd *cobra.Command, args []string) error {
	at := cmd.Flags().ArgsLenAtDash()
	if at < 0 {
		return fmt.Errorf("missing the '--' separator between the file and the command")
	}
	if at != 1 {
		return fmt.Errorf("expected exactly one file before '--', got %d", at)
	}
	if len(args) == at {
		return fmt.Errorf("no command given after '--'")
	}
	return nil
}

func (o *options) run(cmd *cobra.Command, args []string) error {
	target := args[0]
	tokens := args[cmd.Flags().ArgsLenAtDash():]

	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	effVerbose := cfg.Verbose
	if cmd.Flags().Changed("verbose") {
		effVerbose = o.verbose
	}
	logger := observability.NewLogger("rewrite", os.Stderr, effVerbose)

	inject := cfg.InjectEnabled()
	if cmd.Flags().Changed("no-env") {
		inject = !o.noEnv
	}

	program, progArgs := o.resolveCommand(tokens, cfg)
	mode, dir := o.resolveScratch(cfg)

	extraEnv, err := o.loadExtraEnv(cfg)
	if err != nil {
		return err
	}
	cred, err := o.resolveUser()
	if err != nil {
		return err
	}

	if o.useStdin && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "rewrite: reading command input from the terminal, press Ctrl-D to finish")
	}

	coord, err := engine.New(engine.Config{
		TargetPath:  target,
		Program:     program,
		Args:        progArgs,
		ExtraEnv:    extraEnv,
		InjectEnv:   inject,
		UseStdin:    o.useStdin,
		NoOp:        o.noOp,
		ScratchMode: mode,
		ScratchDir:  dir,
		Credential:  cred,
		Log:         logger,
	})
	if err != nil {
		return err
	}
	if err := coord.Run(); err != nil {
		return err
	}
	if o.noOp {
		fmt.Fprintf(os.Stderr, "rewrite: no-op, skipping writeback to %s\n", target)
	}
	return nil
}

// loadConfig resolves and loads the defaults file, if any applies.
func (o *options) loadConfig() (*config.Config, error) {
	path := config.Locate(o.cfgFile)
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path, o.cfgFile != "")
}

// resolveCommand turns the raw tokens into a program and argument list,
// applying shell indirection when requested.
func (o *options) resolveCommand(tokens []string, cfg *config.Config) (string, []string) {
	if !o.useShell {
		return tokens[0], tokens[1:]
	}
	shell := cfg.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	return shell, []string{"-c", strings.Join(tokens, " ")}
}

// resolveScratch merges the scratch flag trio with the config defaults.
// Any scratch flag beats the config's choice; with neither, the scratch
// file is staged next to the target.
func (o *options) resolveScratch(cfg *config.Config) (engine.ScratchDirMode, string) {
	switch {
	case o.scratchDir != "":
		return engine.ScratchExplicit, o.scratchDir
	case o.useTmp:
		return engine.ScratchTemp, ""
	case o.useCwd:
		return engine.ScratchCwd, ""
	case cfg.Scratch.Dir != "":
		return engine.ScratchExplicit, cfg.Scratch.Dir
	case cfg.Scratch.UseTmp:
		return engine.ScratchTemp, ""
	case cfg.Scratch.UseCwd:
		return engine.ScratchCwd, ""
	default:
		return engine.ScratchSibling, ""
	}
}

// loadExtraEnv reads the env file named by the flag or the config.
func (o *options) loadExtraEnv(cfg *config.Config) ([]string, error) {
	path := o.envFile
	if path == "" {
		path = cfg.Env.File
	}
	if path == "" {
		return nil, nil
	}
	vars, err := engine.LoadEnvFile(path)
	if err != nil {
		return nil, err
	}
	return engine.FormatEnv(vars), nil
}

// resolveUser looks up the --user flag and builds the credential applied at
// spawn time.
func (o *options) resolveUser() (*engine.Credential, error) {
	if o.runAs == "" {
		return nil, nil
	}
	u, err := user.Lookup(o.runAs)
	if err != nil {
		return nil, fmt.Errorf("looking up user %s: %w", o.runAs, err)
	}
	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("parsing uid for %s: %w", o.runAs, err)
	}
	gid, err := strconv.ParseUint(u.Gid, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("parsing gid for %s: %w", o.runAs, err)
	}
	return &engine.Credential{Username: o.runAs, UID: uint32(uid), GID: uint32(gid)}, nil
}
