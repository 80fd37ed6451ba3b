// Package config は環境変数と .env ファイルから実行設定を読み込みます。
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Backend は使用する合成バックエンドです。
const (
	BackendVoicevox   = "voicevox"
	BackendElevenLabs = "elevenlabs"
)

// Config はアプリケーション全体の設定です。
type Config struct {
	Backend string `env:"VOICE_BACKEND" envDefault:"voicevox"` // voicevox|elevenlabs

	// VOICEVOX
	VoicevoxAPIURL  string `env:"VOICEVOX_API_URL" envDefault:"http://localhost:50021"`
	SegmentMaxChars int    `env:"SEGMENT_MAX_CHARS" envDefault:"200"` // 1リクエストあたりの最大文字数

	// ElevenLabs
	ElevenLabsAPIURL          string  `env:"ELEVENLABS_API_URL" envDefault:"https://api.elevenlabs.io/v1"`
	ElevenLabsAPIKey          string  `env:"ELEVENLABS_API_KEY"`
	ElevenLabsModelID         string  `env:"ELEVENLABS_MODEL_ID" envDefault:"eleven_multilingual_v2"`
	ElevenLabsStability       float64 `env:"ELEVENLABS_STABILITY" envDefault:"0.5"`
	ElevenLabsSimilarityBoost float64 `env:"ELEVENLABS_SIMILARITY_BOOST" envDefault:"0.75"`

	// 通信
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"60s"`
	HealthTimeout   time.Duration `env:"HEALTH_TIMEOUT" envDefault:"5s"`
	TaskTimeout     time.Duration `env:"TASK_TIMEOUT" envDefault:"300s"`
	RequestInterval time.Duration `env:"REQUEST_INTERVAL" envDefault:"0s"` // リクエスト間の最小間隔
	MaxRetries      uint64        `env:"MAX_RETRIES" envDefault:"3"`

	// 音声変換
	ResampleQuality int `env:"RESAMPLE_QUALITY" envDefault:"4"` // 1 (速い) - 64 (高品質)

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"` // debug|info|warn|error
}

// Load は envFiles (省略時は .env) を読み込んだ後、環境変数から Config を構築します。
// 既に設定されている環境変数は .env で上書きされません。存在しない .env は無視します。
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf(".env ファイルの読み込みに失敗しました (%s): %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("環境変数の解析に失敗しました: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定値の整合性を検証します。
func (c *Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendVoicevox:
	case BackendElevenLabs:
		if strings.TrimSpace(c.ElevenLabsAPIKey) == "" {
			errs = append(errs, errors.New("ELEVENLABS_API_KEY が設定されていません"))
		}
	default:
		errs = append(errs, fmt.Errorf("VOICE_BACKEND '%s' は未対応です (voicevox または elevenlabs)", c.Backend))
	}
	if c.ResampleQuality < 1 || c.ResampleQuality > 64 {
		errs = append(errs, fmt.Errorf("RESAMPLE_QUALITY は 1 から 64 の範囲で指定してください (%d)", c.ResampleQuality))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT は正の値を指定してください"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel は LogLevel を slog.Level に変換します。
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL '%s' は不正です: %w", c.LogLevel, err)
	}
	return level, nil
}
