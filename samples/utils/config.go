package utils

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

// Config holds everything a sample can be tuned with. It is read from an
// optional TOML file first, then overridden from the command line.
type Config struct {
	Width      int  `toml:"width"`
	Height     int  `toml:"height"`
	Validation bool `toml:"validation"`

	LogLevel  string `toml:"log_level"`
	ShaderDir string `toml:"shader_dir"`
	AssetDir  string `toml:"asset_dir"`
	HotReload bool   `toml:"hot_reload"`

	// Frames stops the sample after this many frames, 0 runs until the window
	// is closed.
	Frames     int    `toml:"frames"`
	SaveImages bool   `toml:"save_images"`
	Screenshot string `toml:"screenshot"`
	Verify     bool   `toml:"verify"`

	Capacity        int `toml:"capacity"`
	NonUniformCount int `toml:"nonuniform_count"`
}

// ErrHelpRequested is returned by ProcessCommandLineArgs after printing usage.
var ErrHelpRequested = errors.New("help requested")

func DefaultConfig() Config {
	return Config{
		Width:           1280,
		Height:          720,
		Validation:      true,
		LogLevel:        "info",
		ShaderDir:       "shaders",
		AssetDir:        "assets",
		Capacity:        2048,
		NonUniformCount: 64,
	}
}

// LoadConfig decodes TOML from r on top of the current values. Unknown keys
// are rejected.
func (c *Config) LoadConfig(r io.Reader) error {
	decoder := toml.NewDecoder(r)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(c)
	if err != nil {
		return errors.Wrap(err, "decode sample config")
	}
	return c.Validate()
}

func (c *Config) LoadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}
	return c.LoadConfig(bytes.NewReader(data))
}

func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Newf("window size %dx%d is not positive", c.Width, c.Height)
	}
	if c.Frames < 0 {
		return errors.Newf("frame count %d is negative", c.Frames)
	}
	if c.Capacity <= 0 {
		return errors.Newf("heap capacity %d is not positive", c.Capacity)
	}
	if c.NonUniformCount <= 0 || c.NonUniformCount > c.Capacity {
		return errors.Newf("non-uniform descriptor count %d must be in [1, %d]", c.NonUniformCount, c.Capacity)
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// ProcessCommandLineArgs applies args (without the program name) to the
// config. A --config file is loaded before any other flag is applied, no
// matter where it appears.
func (c *Config) ProcessCommandLineArgs(args []string, usage io.Writer) error {
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" {
			if i+1 >= len(args) {
				return errors.New("--config needs a path")
			}
			err := c.LoadConfigFile(args[i+1])
			if err != nil {
				return err
			}
		}
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		value := func() (string, error) {
			if i+1 >= len(args) {
				return "", errors.Newf("%s needs a value", arg)
			}
			i++
			return args[i], nil
		}
		intValue := func() (int, error) {
			str, err := value()
			if err != nil {
				return 0, err
			}
			parsed, err := strconv.Atoi(str)
			if err != nil {
				return 0, errors.Wrapf(err, "%s", arg)
			}
			return parsed, nil
		}

		var err error
		switch arg {
		case "--config":
			i++
		case "--save-images":
			c.SaveImages = true
		case "--verify":
			c.Verify = true
		case "--hot-reload":
			c.HotReload = true
		case "--validation":
			c.Validation = true
		case "--no-validation":
			c.Validation = false
		case "--screenshot":
			c.Screenshot, err = value()
		case "--log-level":
			c.LogLevel, err = value()
		case "--shader-dir":
			c.ShaderDir, err = value()
		case "--asset-dir":
			c.AssetDir, err = value()
		case "--frames":
			c.Frames, err = intValue()
		case "--width":
			c.Width, err = intValue()
		case "--height":
			c.Height, err = intValue()
		case "--capacity":
			c.Capacity, err = intValue()
		case "--nonuniform-count":
			c.NonUniformCount, err = intValue()
		case "--help", "-h":
			printUsage(usage)
			return ErrHelpRequested
		default:
			fmt.Fprintf(usage, "\nUnrecognized option: %s\n", arg)
			fmt.Fprintln(usage, "\nUse --help or -h for option list.")
			return errors.Newf("unrecognized option %s", arg)
		}
		if err != nil {
			return err
		}
	}

	return c.Validate()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "\nOptions")
	fmt.Fprintln(w, "\t--config <file>\n\t\tLoad settings from a TOML file")
	fmt.Fprintln(w, "\t--width <n>, --height <n>\n\t\tInitial window size")
	fmt.Fprintln(w, "\t--validation, --no-validation\n\t\tToggle the Khronos validation layer")
	fmt.Fprintln(w, "\t--log-level <debug|info|warn|error>")
	fmt.Fprintln(w, "\t--shader-dir <dir>\n\t\tDirectory containing compiled SPIR-V")
	fmt.Fprintln(w, "\t--asset-dir <dir>")
	fmt.Fprintln(w, "\t--hot-reload\n\t\tRebuild pipelines when shaders change on disk")
	fmt.Fprintln(w, "\t--frames <n>\n\t\tExit after n frames")
	fmt.Fprintln(w, "\t--save-images\n\t\tSave the last frame as a png in the current working directory")
	fmt.Fprintln(w, "\t--screenshot <file>\n\t\tSave the last frame as a png at the given path")
	fmt.Fprintln(w, "\t--verify\n\t\tCheck the rendered colours and exit non-zero on mismatch")
	fmt.Fprintln(w, "\t--capacity <n>, --nonuniform-count <n>\n\t\tBindless heap sizes")
}
