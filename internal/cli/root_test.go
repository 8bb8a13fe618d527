package cli

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "symb", cmd.Use)
	assert.Contains(t, cmd.Long, "differentiate")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"eval", "derive", "simplify", "demo", "lib", "test", "trace", "replay"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		command string
		flags   map[string]string // flag name -> default
	}{
		{"eval", map[string]string{"expr": "", "file": "", "entry": "", "at": "[]"}},
		{"derive", map[string]string{"expr": "", "simplify": "false", "max-passes": "1000", "db": ""}},
		{"simplify", map[string]string{"expr": "", "step": "false", "max-passes": "1000", "db": ""}},
		{"demo", map[string]string{"db": ""}},
		{"lib", map[string]string{"validate-only": "false"}},
		{"test", map[string]string{"update": "false", "filter": ""}},
		{"trace", map[string]string{"db": "", "run": ""}},
		{"replay", map[string]string{"db": "", "run": ""}},
	}

	root := NewRootCommand()
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			cmd, _, err := root.Find([]string{tt.command})
			require.NoError(t, err)
			for name, def := range tt.flags {
				flag := cmd.Flags().Lookup(name)
				require.NotNil(t, flag, "flag --%s", name)
				assert.Equal(t, def, flag.DefValue, "flag --%s", name)
			}
		})
	}
}

func TestExprShorthands(t *testing.T) {
	root := NewRootCommand()
	cmd, _, err := root.Find([]string{"derive"})
	require.NoError(t, err)

	assert.Equal(t, "e", cmd.Flags().Lookup("expr").Shorthand)
	assert.Equal(t, "f", cmd.Flags().Lookup("file").Shorthand)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	_, err := executeCommand(t, cmd, "--format", "invalid", "demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootExecutesSubcommand(t *testing.T) {
	cmd := NewRootCommand()
	out, err := executeCommand(t, cmd, "eval", "--expr", squareExpr, "--at", "3")
	require.NoError(t, err)
	assert.Equal(t, "(x * x)\n  x = 3: 9\n", out)
}

func TestRootOptionsLogger(t *testing.T) {
	opts := &RootOptions{}
	l := opts.Logger(io.Discard)
	require.NotNil(t, l)
	assert.Same(t, l, opts.Logger(io.Discard), "logger is created once")
}
