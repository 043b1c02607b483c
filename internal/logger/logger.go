package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. An unknown level falls back to info.
func Init(level string, pretty bool) zerolog.Logger {
	return InitWithWriter(os.Stdout, level, pretty)
}

func InitWithWriter(w io.Writer, level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	l := zerolog.New(w).With().Timestamp().Logger()
	log.Logger = l
	return l
}

// Adapter lets chi's request logger and GORM's logger write through zerolog.
type Adapter struct {
	Logger zerolog.Logger
}

func (a Adapter) Printf(format string, v ...interface{}) {
	a.Logger.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (a Adapter) Print(v ...interface{}) {
	a.Logger.Info().Msg(strings.TrimSpace(fmt.Sprint(v...)))
}
