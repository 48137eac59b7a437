package git

import (
	"bytes"
	"log"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// ExecutorInterface runs external commands with a timeout. It exists so
// tests can substitute a mock for the real git binary.
type ExecutorInterface interface {
	ExecCommand(name string, cmdTimeout time.Duration, runInBackground bool, environment []string, arg ...string) (string, string, error)
}

// CommandExecutor is the production ExecutorInterface.
type CommandExecutor struct {
	Debug *log.Logger
}

// ExecCommand runs name with args, returning stdout and stderr. Git prompts
// are disabled so a missing credential fails fast instead of hanging.
func (c *CommandExecutor) ExecCommand(name string, cmdTimeout time.Duration, runInBackground bool, environment []string, arg ...string) (string, string, error) {
	command := exec.Command(name, arg...)
	// later entries win: caller-supplied variables override the ambient
	// environment, and the prompt settings override everything
	env := append(os.Environ(), environment...)
	command.Env = append(env, "GIT_ASKPASS=", "GIT_TERMINAL_PROMPT=0")

	c.Debug.Printf("executing command: %v %v, timeout: %s, background: %t", name, arg, cmdTimeout, runInBackground)

	timeout := time.After(cmdTimeout)
	// Subprocesses get their own process group so a Ctrl-C at the terminal
	// doesn't tear them down before we can report what happened.
	command.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	var stdoutbytes, stderrbytes bytes.Buffer
	command.Stdout = &stdoutbytes
	command.Stderr = &stderrbytes
	if err := command.Start(); err != nil {
		return "", "", err
	}

	if !runInBackground {
		// buffered so the Wait goroutine can finish after a timeout
		done := make(chan error, 1)
		go func() { done <- command.Wait() }()

		select {
		case <-timeout:
			command.Process.Kill()
			c.Debug.Printf("timed out command: %v %v after %s, err: %v", name, arg, cmdTimeout, stderrbytes.String())
			return "", "", errors.New("command timed out")
		case err := <-done:
			c.Debug.Printf("finished command: %v %v, err: %v, out: %v", name, arg, err, stdoutbytes.String())
			return stdoutbytes.String(), stderrbytes.String(), err
		}
	}

	c.Debug.Printf("started background command: %v %v", name, arg)
	return "", "", nil
}
