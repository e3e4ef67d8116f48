// Package config loads the YAML settings shared by the snake commands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the top-level settings file. Keys missing from a loaded file keep
// the value from Default.
type Config struct {
	Game     GameConfig     `yaml:"game"`
	Play     PlayConfig     `yaml:"play"`
	SelfPlay SelfPlayConfig `yaml:"selfplay"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Log      LogConfig      `yaml:"log"`
}

type GameConfig struct {
	Size int `yaml:"size" validate:"min=2,max=256"`
	// Seed 0 means pick one from the clock where that makes sense.
	Seed uint64 `yaml:"seed"`
}

type PlayConfig struct {
	Tick time.Duration `yaml:"tick" validate:"min=10ms"`
}

type SelfPlayConfig struct {
	Workers          int     `yaml:"workers" validate:"min=1,max=1024"`
	Episodes         int     `yaml:"episodes" validate:"min=0"`
	MaxTurns         int     `yaml:"max_turns" validate:"min=1"`
	OutDir           string  `yaml:"out_dir" validate:"required"`
	EpisodesPerFlush int     `yaml:"episodes_per_flush" validate:"min=1"`
	TurnsPerSecond   float64 `yaml:"turns_per_second" validate:"min=0"`
	Policy           string  `yaml:"policy" validate:"oneof=random greedy onnx mcts"`
	ModelPath        string  `yaml:"model_path" validate:"required_if=Policy onnx"`
	OnnxLibrary      string  `yaml:"onnx_library"`
	MetricsAddr      string  `yaml:"metrics_addr"`
}

type ViewerConfig struct {
	Addr           string  `yaml:"addr" validate:"required"`
	TurnsPerSecond float64 `yaml:"turns_per_second" validate:"gt=0"`
	Policy         string  `yaml:"policy" validate:"oneof=random greedy mcts manual"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json pretty"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Game: GameConfig{Size: 10},
		Play: PlayConfig{Tick: 150 * time.Millisecond},
		SelfPlay: SelfPlayConfig{
			Workers:          4,
			Episodes:         100,
			MaxTurns:         2000,
			OutDir:           "data/episodes",
			EpisodesPerFlush: 50,
			Policy:           "greedy",
		},
		Viewer: ViewerConfig{
			Addr:           ":8080",
			TurnsPerSecond: 8,
			Policy:         "greedy",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field constraint and reports all failures at once.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %w", errors.Join(msgs...))
}

// Decode reads YAML from r on top of Default and validates the result.
// Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads path with Decode. An empty path returns Default.
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Decode(bytes.NewReader(b))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Marshal renders cfg as YAML, e.g. for a starter file.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}
