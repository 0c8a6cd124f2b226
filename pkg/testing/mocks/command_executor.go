package mocks

import (
	"context"

	"github.com/ZaparooProject/prism-core/pkg/helpers/command"
	"github.com/stretchr/testify/mock"
)

// MockCommandExecutor is a testify mock for command.Executor. Match
// commands by program with CmdNamed:
//
//	exec.On("Exec", mock.Anything, mocks.CmdNamed("pwsh")).Return(command.Result{}, nil)
type MockCommandExecutor struct {
	mock.Mock
}

var _ command.Executor = (*MockCommandExecutor)(nil)

func (m *MockCommandExecutor) Exec(ctx context.Context, c command.Cmd) (command.Result, error) {
	args := m.Called(ctx, c)
	res, _ := args.Get(0).(command.Result)
	//nolint:wrapcheck // returned as configured
	return res, args.Error(1)
}

// CmdNamed matches a command.Cmd by program name.
func CmdNamed(name string) any {
	return mock.MatchedBy(func(c command.Cmd) bool {
		return c.Name == name
	})
}

// Stdout is a successful result printing out.
func Stdout(out string) command.Result {
	return command.Result{Stdout: []byte(out)}
}
