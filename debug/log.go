package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.Mutex
	file    *os.File
	logger  atomic.Pointer[zap.Logger]
	enabled atomic.Bool
)

func init() {
	logger.Store(zap.NewNop())
}

// DefaultPath is ~/.config/go-polyarp/debug.log
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "go-polyarp", "debug.log")
}

// Enable starts debug logging to DefaultPath.
func Enable() error {
	return EnableFile(DefaultPath())
}

// EnableFile starts debug logging to path, truncating it.
func EnableFile(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled.Load() {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open debug log: %w", err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), zapcore.DebugLevel)

	file = f
	logger.Store(zap.New(core))
	enabled.Store(true)

	Logger().Info("=== Debug logging started ===")
	return nil
}

// Disable stops debug logging and closes the file.
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if !enabled.Load() {
		return
	}
	enabled.Store(false)
	old := logger.Swap(zap.NewNop())
	_ = old.Sync()
	if file != nil {
		file.Close()
		file = nil
	}
}

// Enabled reports whether logging is on.
func Enabled() bool {
	return enabled.Load()
}

// Logger returns the current logger. It is a no-op logger while disabled.
func Logger() *zap.Logger {
	return logger.Load()
}

// Log writes a message tagged with category.
func Log(category, format string, args ...any) {
	if !enabled.Load() {
		return
	}
	Logger().Debug(fmt.Sprintf(format, args...), zap.String("cat", category))
}

// LogEvery logs only every n calls (use for high-frequency events)
var (
	countersMu sync.Mutex
	counters   = make(map[string]int)
)

func LogEvery(n int, category, format string, args ...any) {
	if !enabled.Load() {
		return
	}
	countersMu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	countersMu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
