package logging

import (
	"io"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"gotendency/internal/errors"
)

// New builds the process logger. format is "logfmt" or "json"; lvl is one of
// debug, info, warn, error.
func New(w io.Writer, format, lvl string) (log.Logger, error) {
	var logger log.Logger
	switch strings.ToLower(format) {
	case "", "logfmt":
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	case "json":
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	default:
		return nil, errors.ConfigInvalid("unknown log format " + format)
	}

	allowed, err := level.Parse(lvl)
	if err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "log level")
	}

	logger = level.NewFilter(logger, level.Allow(allowed))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return logger, nil
}

// Component derives a logger tagged with a component name
func Component(logger log.Logger, name string) log.Logger {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return log.With(logger, "component", name)
}
