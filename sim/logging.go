package sim

import (
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"
)

type LogOptions struct {
	Level   slog.Level
	Prefix  string    // shown in front of every console line
	Console io.Writer // defaults to stderr
	Path    string    // optional log file, appended to
}

// NewLogger builds the console logger, fanned out to a log file if one is
// configured. The returned function closes the log file.
func NewLogger(opts LogOptions) (*slog.Logger, func() error, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(console, &tint.Options{
			Level:        opts.Level,
			AddSource:    false,
			CustomPrefix: opts.Prefix,
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}))

	closer := func() error { return nil }
	if opts.Path != "" {
		err := os.MkdirAll(path.Dir(opts.Path), 0700)
		if err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(opts.Path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: opts.Level}))
		closer = f.Close
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}
