package cowfs

import (
	"bytes"
	"context"
	"io"
	"os/exec"
)

// Runner executes external commands. The real implementation shells out to
// the btrfs CLI; tests substitute a fake so they never touch a real
// filesystem.
type Runner interface {
	// Run executes name with args, returning its stdout and, on failure, a
	// *CommandError carrying the captured stderr.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// RunPiped starts name1(args1...) and name2(args2...), connecting the
	// first's stdout to the second's stdin, and waits for both. It returns
	// the second command's stdout, plus any error from either side
	// (err1 captures stage-one's failure/stderr, err2 stage-two's).
	RunPiped(ctx context.Context, name1 string, args1 []string, name2 string, args2 []string) (out []byte, err1, err2 error)
}

// ExecRunner is the production Runner, invoking real subprocesses.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), &CommandError{Cmd: name, Args: args, Stderr: stderr.String(), Err: err}
	}
	return stdout.Bytes(), nil
}

func (ExecRunner) RunPiped(ctx context.Context, name1 string, args1 []string, name2 string, args2 []string) ([]byte, error, error) {
	cmd1 := exec.CommandContext(ctx, name1, args1...)
	cmd2 := exec.CommandContext(ctx, name2, args2...)

	pr, pw := io.Pipe()
	cmd1.Stdout = pw
	cmd2.Stdin = pr

	var stderr1, stderr2, stdout2 bytes.Buffer
	cmd1.Stderr = &stderr1
	cmd2.Stderr = &stderr2
	cmd2.Stdout = &stdout2

	if err := cmd1.Start(); err != nil {
		_ = pw.Close()
		return nil, &CommandError{Cmd: name1, Args: args1, Stderr: stderr1.String(), Err: err}, nil
	}
	if err := cmd2.Start(); err != nil {
		_ = pw.Close()
		_ = cmd1.Wait()
		return nil, nil, &CommandError{Cmd: name2, Args: args2, Stderr: stderr2.String(), Err: err}
	}

	err1 := cmd1.Wait()
	_ = pw.Close()
	err2 := cmd2.Wait()

	var wrapped1, wrapped2 error
	if err1 != nil {
		wrapped1 = &CommandError{Cmd: name1, Args: args1, Stderr: stderr1.String(), Err: err1}
	}
	if err2 != nil {
		wrapped2 = &CommandError{Cmd: name2, Args: args2, Stderr: stderr2.String(), Err: err2}
	}
	return stdout2.Bytes(), wrapped1, wrapped2
}

// CommandError carries the command, arguments, captured stderr, and
// underlying exec error for distinct attribution in a send/receive
// pipeline.
type CommandError struct {
	Cmd    string
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := e.Cmd
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
