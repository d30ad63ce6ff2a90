package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/negativepl/SmoothScroll/pkg/config"
)

// Options describe how to configure a logger instance.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New creates a structured logger backed by Go's slog package.
func New(opts Options) (*slog.Logger, error) {
	logger, _, err := NewLeveled(opts)
	return logger, err
}

// NewLeveled is New plus the level variable backing the handler, so a
// configuration reload can change verbosity without rebuilding the logger.
func NewLeveled(opts Options) (*slog.Logger, *slog.LevelVar, error) {
	levelVar := new(slog.LevelVar)
	if err := SetLevel(levelVar, opts.Level); err != nil {
		return nil, nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := slog.HandlerOptions{
		Level:       levelVar,
		ReplaceAttr: replaceTimeAttr,
	}

	format, err := config.NormalizeFormat(opts.Format)
	if err != nil {
		return nil, nil, err
	}
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(out, &handlerOpts)
	default:
		handler = slog.NewTextHandler(out, &handlerOpts)
	}

	return slog.New(handler), levelVar, nil
}

// SetLevel parses level and stores it in v.
func SetLevel(v *slog.LevelVar, level string) error {
	normalized, err := config.NormalizeLogLevel(level)
	if err != nil {
		return err
	}

	switch normalized {
	case "info":
		v.Set(slog.LevelInfo)
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		return fmt.Errorf("unhandled log level %q", strings.TrimSpace(level))
	}
	return nil
}

func replaceTimeAttr(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key == slog.TimeKey && attr.Value.Kind() == slog.KindTime {
		attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
	}
	return attr
}
