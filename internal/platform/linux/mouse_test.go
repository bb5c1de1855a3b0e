//go:build linux

package linux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commandRecorder struct {
	calls [][]string
	err   error
}

func (r *commandRecorder) run(name string, args ...string) (string, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return "", r.err
}

func TestCommandSinkSkipsRepeatedPositions(t *testing.T) {
	rec := &commandRecorder{}
	sink := &CommandSink{Cmd: "xdotool", Args: []string{"mousemove", "--"}, run: rec.run}

	require.NoError(t, sink.SetCursorPosition(10, -20))
	require.NoError(t, sink.SetCursorPosition(10, -20))
	require.NoError(t, sink.SetCursorPosition(11, -20))

	assert.Equal(t, [][]string{
		{"xdotool", "mousemove", "--", "10", "-20"},
		{"xdotool", "mousemove", "--", "11", "-20"},
	}, rec.calls)
	assert.Equal(t, "xdotool", sink.Name())
	assert.NoError(t, sink.Close())
}

func TestCommandSinkRetriesAfterFailure(t *testing.T) {
	rec := &commandRecorder{err: assert.AnError}
	sink := &CommandSink{Cmd: "xdotool", run: rec.run}

	assert.ErrorIs(t, sink.SetCursorPosition(1, 1), assert.AnError)
	rec.err = nil
	assert.NoError(t, sink.SetCursorPosition(1, 1))
	assert.Len(t, rec.calls, 2, "a failed move is not remembered")
}
