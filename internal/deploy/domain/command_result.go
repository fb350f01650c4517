package domain

// CommandResult is the outcome of a command that exited zero. Stdout is
// empty when the plan redirected its output to a file.
type CommandResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}
