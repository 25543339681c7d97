package cmdcommon

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/nrawrx3/uno"
)

const ConfigPrefix = "UNO"

type Frontend string

const (
	FrontendREPL Frontend = "repl"
	FrontendTUI  Frontend = "tui"
	FrontendHTTP Frontend = "http"
)

type EnvConfig struct {
	Players      []string `default:"Player 1,Player 2"`
	AIPlayers    []string `envconfig:"AI_PLAYERS"`
	HandSize     int      `split_words:"true" default:"7"`
	TargetScore  int      `split_words:"true" default:"500"`
	MaxRounds    int      `split_words:"true"`
	Seed         int64
	HistoryLimit int      `split_words:"true"`
	SavePath     string   `split_words:"true" default:"uno_save.json"`
	LogDir       string   `split_words:"true" default:"/tmp"`
	DarkMode     bool     `split_words:"true"`
	Frontend     Frontend `default:"repl"`

	// With FrontendREPL or FrontendTUI a non-empty address also serves the game over HTTP.
	HTTPListenAddr string `envconfig:"HTTP_LISTEN_ADDR" default:"localhost:8080"`

	// Path of a hand_reader JSON preset to start from instead of a fresh deal.
	DebugStartingHandJSON string `envconfig:"DEBUG_STARTING_HAND_JSON"`
}

func LoadEnvConfig() (*EnvConfig, error) {
	var c EnvConfig
	err := envconfig.Process(ConfigPrefix, &c)
	if err != nil {
		return nil, err
	}
	switch c.Frontend {
	case FrontendREPL, FrontendTUI, FrontendHTTP:
	default:
		return nil, fmt.Errorf("unknown frontend '%s', expected repl, tui or http", c.Frontend)
	}
	return &c, nil
}

// EngineOptions builds the engine options. The engine validates counts and sizes; unknown
// AI player names are rejected here.
func (c *EnvConfig) EngineOptions() (uno.Options, error) {
	opts := uno.DefaultOptions()
	opts.HandSize = c.HandSize
	opts.TargetScore = c.TargetScore
	opts.MaxRounds = c.MaxRounds
	opts.Seed = c.Seed
	opts.HistoryLimit = c.HistoryLimit

	isAI := make(map[string]bool, len(c.AIPlayers))
	for _, name := range c.AIPlayers {
		isAI[strings.TrimSpace(name)] = true
	}

	opts.Players = make([]uno.PlayerConfig, len(c.Players))
	for i, name := range c.Players {
		name = strings.TrimSpace(name)
		opts.Players[i] = uno.PlayerConfig{Name: name, IsAI: isAI[name]}
		delete(isAI, name)
	}
	for name := range isAI {
		return opts, fmt.Errorf("AI player '%s' is not one of the players %v", name, c.Players)
	}
	return opts, nil
}
