package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	config := DefaultConfig()
	err := config.LoadConfig(strings.NewReader(`
width = 800
height = 600
validation = false
log_level = "debug"
capacity = 64
nonuniform_count = 64
`))
	require.NoError(t, err)

	require.Equal(t, 800, config.Width)
	require.Equal(t, 600, config.Height)
	require.False(t, config.Validation)
	require.Equal(t, "debug", config.LogLevel)
	require.Equal(t, 64, config.Capacity)
	require.Equal(t, "shaders", config.ShaderDir)
}

func TestLoadConfig_Errors(t *testing.T) {
	testCases := map[string]string{
		"unknown key":       `fullscreen = true`,
		"bad type":          `width = "wide"`,
		"negative frames":   `frames = -1`,
		"count > capacity":  "capacity = 16\nnonuniform_count = 64",
		"unknown log level": `log_level = "chatty"`,
	}

	for name, document := range testCases {
		t.Run(name, func(t *testing.T) {
			config := DefaultConfig()
			require.Error(t, config.LoadConfig(strings.NewReader(document)))
		})
	}
}

func TestConfig_MarshalRoundTrip(t *testing.T) {
	config := DefaultConfig()
	config.Verify = true
	config.Screenshot = "out.png"

	data, err := config.Marshal()
	require.NoError(t, err)

	decoded := Config{}
	require.NoError(t, decoded.LoadConfig(bytes.NewReader(data)))
	require.Equal(t, config, decoded)
}

func TestProcessCommandLineArgs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.toml")
	require.NoError(t, os.WriteFile(path, []byte("width = 640\nheight = 480\nframes = 10\n"), 0o644))

	config := DefaultConfig()
	usage := &bytes.Buffer{}
	err := config.ProcessCommandLineArgs([]string{
		"--frames", "2",
		"--verify",
		"--no-validation",
		"--config", path,
		"--screenshot", "frame.png",
		"--capacity", "64",
	}, usage)
	require.NoError(t, err)

	// flags win over the file regardless of order
	require.Equal(t, 2, config.Frames)
	require.Equal(t, 640, config.Width)
	require.Equal(t, 480, config.Height)
	require.True(t, config.Verify)
	require.False(t, config.Validation)
	require.Equal(t, "frame.png", config.Screenshot)
	require.Equal(t, 64, config.Capacity)
	require.Empty(t, usage.String())
}

func TestProcessCommandLineArgs_Errors(t *testing.T) {
	testCases := map[string][]string{
		"missing value":   {"--frames"},
		"not a number":    {"--width", "wide"},
		"unknown option":  {"--fullscreen"},
		"missing config":  {"--config", filepath.Join(t.TempDir(), "missing.toml")},
		"invalid result":  {"--nonuniform-count", "0"},
		"config no value": {"--config"},
	}

	for name, args := range testCases {
		t.Run(name, func(t *testing.T) {
			config := DefaultConfig()
			require.Error(t, config.ProcessCommandLineArgs(args, &bytes.Buffer{}))
		})
	}
}

func TestProcessCommandLineArgs_Help(t *testing.T) {
	config := DefaultConfig()
	usage := &bytes.Buffer{}

	err := config.ProcessCommandLineArgs([]string{"--help"}, usage)
	require.True(t, errors.Is(err, ErrHelpRequested))
	require.Contains(t, usage.String(), "--save-images")
}

func TestSetLogLevel(t *testing.T) {
	require.NoError(t, SetLogLevel("warn"))
	require.NoError(t, SetLogLevel("info"))
	require.Error(t, SetLogLevel("chatty"))
}
