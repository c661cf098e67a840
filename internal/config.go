package internal

import (
	"fmt"
	"time"
)

// Config holds every tunable of the server binary, loaded from environment
// variables.
type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	SearchFilepath       string        `env:"SEARCH_FILEPATH,required=true"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
	JWTSecret            string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=128"`
	CensoredWords        []string      `env:"CENSORED_WORDS"`
	CensorReplacement    string        `env:"CENSOR_REPLACEMENT,default=*"`
	DebugPort            int           `env:"DEBUG_PORT"`
}

// CensorRune validates that the configured replacement is a single character.
func (c Config) CensorRune() (rune, error) {
	r := []rune(c.CensorReplacement)
	if len(r) != 1 {
		return 0, fmt.Errorf("CENSOR_REPLACEMENT must be a single character, got %q", c.CensorReplacement)
	}
	return r[0], nil
}
