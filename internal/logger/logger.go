package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds the service-wide logger. Development gets the console writer,
// everything else emits plain JSON to stderr.
func New(env string) zerolog.Logger {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "dispatch").Logger()
	if env == "development" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return log
}
