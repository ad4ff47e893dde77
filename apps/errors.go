package apps

import "fmt"

// ArgumentError is a command-line usage error of one of the apps' commands.
type ArgumentError struct {
	Command string
	Arg     string
	msg     string
}

func NewArgumentError(command, arg, msg string) *ArgumentError {
	return &ArgumentError{Command: command, Arg: arg, msg: msg}
}

func (err *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s %s", err.Command, err.Arg, err.msg)
}
