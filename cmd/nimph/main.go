package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"text/tabwriter"

	"github.com/saem/nimph"
	"github.com/saem/nimph/internal/feedback"
	"github.com/saem/nimph/internal/git"
	"github.com/saem/nimph/internal/selfupdate"
	"github.com/saem/nimph/internal/telemetry"
)

var (
	successExitCode = 0
	errorExitCode   = 1
)

type command interface {
	Name() string           // "foobar"
	Args() string           // "<baz> [quux...]"
	ShortHelp() string      // "Foo the first bar"
	LongHelp() string       // "Foo the first bar meeting the following conditions..."
	Register(*flag.FlagSet) // command-specific flags
	Hidden() bool           // indicates whether the command should be hidden from help output
	Run(*nimph.Ctx, []string) error
}

func main() {
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to get working directory", err)
		os.Exit(1)
	}

	c := &Config{
		Args:       os.Args,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		WorkingDir: wd,
		Env:        os.Environ(),
	}
	os.Exit(c.Run())
}

// A Config specifies a full configuration for a nimph execution.
type Config struct {
	WorkingDir     string    // Where to execute
	Args           []string  // Command-line arguments, starting with the program name.
	Env            []string  // Environment variables
	Stdout, Stderr io.Writer // Log output
}

// Run executes a configuration and returns an exit code.
func (c *Config) Run() (exitCode int) {
	commands := [...]command{
		&pathCommand{},
		&upgradeCommand{},
		&lockCommand{},
		&unlockCommand{},
		&searchCommand{},
		&forkCommand{},
		&nimbleCommand{},
		&versionCommand{},
	}

	examples := [...][2]string{
		{
			"nimph path bar",
			"print where the resolved bar package lives",
		},
		{
			"nimph upgrade",
			"roll every dependency to its newest admissible release",
		},
		{
			"nimph lock ci",
			"snapshot the resolved graph into the room named ci",
		},
		{
			"nimph unlock ci",
			"restore every dependency to the references pinned in ci",
		},
	}

	logs, err := feedback.New(c.Stdout, c.Stderr, defaultLogDir())
	if err != nil {
		logs = feedback.Discard(c.Stdout, c.Stderr)
	}
	defer logs.Close()

	usage := func(w io.Writer) {
		fmt.Fprintln(w, "Nimph is a package manager for Nim projects")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Usage: \"nimph [command]\"")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Commands:")
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, cmd := range commands {
			if !cmd.Hidden() {
				fmt.Fprintf(tw, "\t%s\t%s\n", cmd.Name(), cmd.ShortHelp())
			}
		}
		tw.Flush()
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Examples:")
		for _, example := range examples {
			fmt.Fprintf(tw, "\t%s\t%s\n", example[0], example[1])
		}
		tw.Flush()
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Use \"nimph help [command]\" for more information about a command.")
	}

	cmdName, printCommandHelp, exit := parseArgs(c.Args)
	if exit {
		usage(c.Stderr)
		return errorExitCode
	}

	logs.Debug.Printf("nimph %s, run %s, command %v", nimphVersion, logs.RunID, c.Args)

	for _, cmd := range commands {
		if cmd.Name() != cmdName {
			continue
		}

		flags := flag.NewFlagSet(cmdName, flag.ContinueOnError)
		flags.SetOutput(c.Stderr)
		verbose := flags.Bool("v", false, "enable verbose logging")

		cmd.Register(flags)
		resetUsage(logs.Err, flags, cmdName, cmd.Args(), cmd.LongHelp())

		if printCommandHelp {
			flags.Usage()
			return errorExitCode
		}
		if err := flags.Parse(c.Args[2:]); err != nil {
			return errorExitCode
		}

		ctx := &nimph.Ctx{
			WorkingDir: c.WorkingDir,
			Depot:      nimph.DefaultDepot(c.Env),
			Env:        c.Env,
			Out:        logs.Out,
			Err:        logs.Err,
			Debug:      logs.Debug,
			Verbose:    *verbose,
		}

		nagAboutStaleBinary(ctx)

		// Anything unexpected below becomes a generic failure message; the
		// full detail stays in the run log and on screen under -v.
		defer func() {
			if r := recover(); r != nil {
				logs.Debug.Printf("panic: %s\n%s", r, debug.Stack())
				if ctx.Verbose {
					logs.Err.Printf("panic: %s\n%s", r, debug.Stack())
				} else {
					logs.Err.Printf("nimph hit an internal error; details in %s", logs.Path)
				}
				telemetry.ReportError("panic."+cmdName, nil, logs.Debug)
				exitCode = errorExitCode
			}
		}()

		stop := telemetry.Instrument("cmd."+cmdName, map[string]string{"command": cmdName}, logs.Debug)
		err := cmd.Run(ctx, flags.Args())
		stop()

		if err != nil {
			if ctx.Verbose {
				logs.Err.Printf("%+v", err)
			} else {
				logs.Err.Printf("%v", err)
			}
			telemetry.ReportError("fail."+cmdName, nil, logs.Debug)
			return errorExitCode
		}
		return successExitCode
	}

	logs.Err.Printf("nimph: %s: no such command", cmdName)
	usage(c.Stderr)
	return errorExitCode
}

func defaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "nimph-logs")
	}
	return filepath.Join(home, ".nimph", "logs")
}

// nagAboutStaleBinary mentions a newer nimph release once per run; network
// trouble here is never worth failing a command over.
func nagAboutStaleBinary(ctx *nimph.Ctx) {
	info, err := selfupdate.IsLatestVersion(nimphVersion, &git.CommandExecutor{Debug: ctx.Debug})
	if err != nil {
		ctx.Debug.Printf("unable to check for a newer nimph: %v", err)
		return
	}
	if !info.IsLatest {
		ctx.Out.Printf("a newer nimph %s is available (you run %s)", info.LatestVersion, nimphVersion)
	}
}

func resetUsage(logger *log.Logger, fs *flag.FlagSet, name, args, longHelp string) {
	var (
		hasFlags   bool
		flagBlock  bytes.Buffer
		flagWriter = tabwriter.NewWriter(&flagBlock, 0, 4, 2, ' ', 0)
	)
	fs.VisitAll(func(f *flag.Flag) {
		hasFlags = true
		defValue := f.DefValue
		if defValue == "" {
			defValue = "<none>"
		}
		fmt.Fprintf(flagWriter, "\t-%s\t%s (default: %s)\n", f.Name, f.Usage, defValue)
	})
	flagWriter.Flush()
	fs.Usage = func() {
		logger.Printf("Usage: nimph %s %s\n", name, args)
		logger.Println()
		logger.Println(strings.TrimSpace(longHelp))
		logger.Println()
		if hasFlags {
			logger.Println("Flags:")
			logger.Println()
			logger.Println(flagBlock.String())
		}
	}
}

// parseArgs determines the name of the nimph command and whether the user
// asked for help to be printed.
func parseArgs(args []string) (cmdName string, printCmdUsage bool, exit bool) {
	isHelpArg := func() bool {
		return strings.Contains(strings.ToLower(args[1]), "help") || strings.ToLower(args[1]) == "-h"
	}

	switch len(args) {
	case 0, 1:
		exit = true
	case 2:
		if isHelpArg() {
			exit = true
		} else {
			cmdName = args[1]
		}
	default:
		if isHelpArg() {
			cmdName = args[2]
			printCmdUsage = true
		} else {
			cmdName = args[1]
		}
	}
	return cmdName, printCmdUsage, exit
}
