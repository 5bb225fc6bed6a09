package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/vkngwrapper/core/v3/core1_0"
)

const spirvMagic = 0x07230203

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}

// LoadShader reads a compiled SPIR-V module. The GLSL sources next to it are
// compiled by `mage shaders`.
func LoadShader(dir, name string) ([]uint32, error) {
	path := filepath.Join(dir, name)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s, run `mage shaders` to compile it", path)
	}

	if len(b) < 4 || len(b)%4 != 0 {
		return nil, errors.Newf("%s is %d bytes, not a SPIR-V module", path, len(b))
	}

	code := bytesToBytecode(b)
	if code[0] != spirvMagic {
		return nil, errors.Newf("%s has magic %#x, not a SPIR-V module", path, code[0])
	}
	return code, nil
}

// CreateShaderModule loads name from the configured shader directory.
func (i *SampleInfo) CreateShaderModule(name string) (core1_0.ShaderModule, error) {
	code, err := LoadShader(i.Config.ShaderDir, name)
	if err != nil {
		return core1_0.ShaderModule{}, err
	}

	module, _, err := i.DeviceDriver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	return module, errors.Wrapf(err, "create shader module %s", name)
}

// ShaderWatcher reports when a compiled shader in a directory changes.
type ShaderWatcher struct {
	fsnotify *fsnotify.Watcher
	changed  chan string
	done     chan struct{}
}

func WatchShaders(dir string) (*ShaderWatcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = fsWatch.Add(dir)
	if err != nil {
		fsWatch.Close()
		return nil, errors.Wrapf(err, "watch %s", dir)
	}

	w := &ShaderWatcher{
		fsnotify: fsWatch,
		changed:  make(chan string, 1),
		done:     make(chan struct{}),
	}
	go w.start()

	LogInfo("watching %s for shader changes", dir)
	return w, nil
}

func (w *ShaderWatcher) start() {
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 || !strings.HasSuffix(e.Name, ".spv") {
				continue
			}
			// a pending notification already covers this change
			select {
			case w.changed <- e.Name:
			default:
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			LogError("shader watcher: %v", err)

		case <-w.done:
			return
		}
	}
}

// Changed returns the most recent changed shader without blocking.
func (w *ShaderWatcher) Changed() (string, bool) {
	select {
	case name := <-w.changed:
		return name, true
	default:
		return "", false
	}
}

func (w *ShaderWatcher) Close() error {
	close(w.done)
	return w.fsnotify.Close()
}
