package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ProviderConfig 模型端点配置
// ProviderConfig is the model endpoint configuration. TimeoutMS 0 means
// the model call carries no deadline; only the page fetch is bounded.
type ProviderConfig struct {
	BaseURL   string `json:"base_url"`
	Model     string `json:"model"`
	APIKey    string `json:"api_key"`
	TimeoutMS int    `json:"timeout_ms"`
}

// FetchConfig bounds the page fetch.
type FetchConfig struct {
	TimeoutSec    int    `json:"timeout_sec"`
	UserAgent     string `json:"user_agent"`
	MaxPageSizeMB int    `json:"max_page_size_mb"`
}

// RenderConfig controls console rendering of bot answers.
type RenderConfig struct {
	Markdown bool `json:"markdown"`
	Width    int  `json:"width"`
}

type Config struct {
	Provider ProviderConfig `json:"provider"`
	Fetch    FetchConfig    `json:"fetch"`
	Render   RenderConfig   `json:"render"`
}

type fileRenderConfig struct {
	Markdown *bool `json:"markdown"`
	Width    *int  `json:"width"`
}

type fileConfig struct {
	Provider *ProviderConfig   `json:"provider"`
	Fetch    *FetchConfig      `json:"fetch"`
	Render   *fileRenderConfig `json:"render"`
}

func Default() Config {
	return Config{
		Provider: ProviderConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai",
			Model:   "gemini-1.5-flash",
			// TimeoutMS deliberately 0: the model call has no deadline.
		},
		Fetch: FetchConfig{
			TimeoutSec:    10,
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			MaxPageSizeMB: 5,
		},
		Render: RenderConfig{
			Markdown: true,
			Width:    80,
		},
	}
}

// Load merges, in order: defaults, ~/.webchat/config.json, the project
// config (webchat.config.json in cwd), then an explicit path or
// WEBCHAT_CONFIG_PATH, then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	for _, globalPath := range globalConfigPaths() {
		if err := mergeFromFile(&cfg, globalPath); err != nil {
			return Config{}, err
		}
	}

	resolvedPath := strings.TrimSpace(path)
	if envPath := strings.TrimSpace(os.Getenv("WEBCHAT_CONFIG_PATH")); envPath != "" {
		resolvedPath = envPath
	}
	if resolvedPath == "" {
		resolvedPath = findProjectConfigPath()
	}
	if err := mergeFromFile(&cfg, resolvedPath); err != nil {
		return Config{}, err
	}

	return applyEnv(cfg)
}

func globalConfigPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, ".webchat", "config.json")}
}

func findProjectConfigPath() string {
	candidates := []string{
		"webchat.config.json",
		".webchat/config.json",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func mergeFromFile(cfg *Config, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	resolved, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("expand config path %q: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %q: %w", resolved, err)
	}

	cleaned := stripJSONComments(data)
	var fileCfg fileConfig
	if err := json.Unmarshal(cleaned, &fileCfg); err != nil {
		return fmt.Errorf("parse config %q: %w", resolved, err)
	}
	applyFileConfig(cfg, fileCfg)
	return nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.Provider != nil {
		cfg.Provider = mergeProvider(cfg.Provider, *fc.Provider)
	}
	if fc.Fetch != nil {
		cfg.Fetch = mergeFetch(cfg.Fetch, *fc.Fetch)
	}
	if fc.Render != nil {
		if fc.Render.Markdown != nil {
			cfg.Render.Markdown = *fc.Render.Markdown
		}
		if fc.Render.Width != nil && *fc.Render.Width > 0 {
			cfg.Render.Width = *fc.Render.Width
		}
	}
}

func mergeProvider(base, override ProviderConfig) ProviderConfig {
	if strings.TrimSpace(override.BaseURL) != "" {
		base.BaseURL = override.BaseURL
	}
	if strings.TrimSpace(override.Model) != "" {
		base.Model = override.Model
	}
	if strings.TrimSpace(override.APIKey) != "" {
		base.APIKey = override.APIKey
	}
	if override.TimeoutMS > 0 {
		base.TimeoutMS = override.TimeoutMS
	}
	return base
}

func mergeFetch(base, override FetchConfig) FetchConfig {
	if override.TimeoutSec > 0 {
		base.TimeoutSec = override.TimeoutSec
	}
	if strings.TrimSpace(override.UserAgent) != "" {
		base.UserAgent = override.UserAgent
	}
	if override.MaxPageSizeMB > 0 {
		base.MaxPageSizeMB = override.MaxPageSizeMB
	}
	return base
}

func applyEnv(cfg Config) (Config, error) {
	if v := strings.TrimSpace(os.Getenv("WEBCHAT_BASE_URL")); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("WEBCHAT_MODEL")); v != "" {
		cfg.Provider.Model = v
	}
	// WEBCHAT_API_KEY wins over GOOGLE_API_KEY; the latter matches the
	// conventional Gemini credential variable.
	if v := strings.TrimSpace(os.Getenv("WEBCHAT_API_KEY")); v != "" {
		cfg.Provider.APIKey = v
	} else if v := strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("WEBCHAT_TIMEOUT_MS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid WEBCHAT_TIMEOUT_MS: %q", v)
		}
		cfg.Provider.TimeoutMS = n
	}
	if v := strings.TrimSpace(os.Getenv("WEBCHAT_FETCH_TIMEOUT_SEC")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid WEBCHAT_FETCH_TIMEOUT_SEC: %q", v)
		}
		cfg.Fetch.TimeoutSec = n
	}

	normalize(&cfg)
	return cfg, nil
}

func normalize(cfg *Config) {
	def := Default()
	if strings.TrimSpace(cfg.Provider.BaseURL) == "" {
		cfg.Provider.BaseURL = def.Provider.BaseURL
	}
	if strings.TrimSpace(cfg.Provider.Model) == "" {
		cfg.Provider.Model = def.Provider.Model
	}
	if cfg.Fetch.TimeoutSec <= 0 {
		cfg.Fetch.TimeoutSec = def.Fetch.TimeoutSec
	}
	if strings.TrimSpace(cfg.Fetch.UserAgent) == "" {
		cfg.Fetch.UserAgent = def.Fetch.UserAgent
	}
	if cfg.Fetch.MaxPageSizeMB <= 0 {
		cfg.Fetch.MaxPageSizeMB = def.Fetch.MaxPageSizeMB
	}
	if cfg.Render.Width <= 0 {
		cfg.Render.Width = def.Render.Width
	}
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if path == "~" {
			path = home
		} else {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return filepath.Abs(path)
}

// stripJSONComments removes // and /* */ comments outside of strings so
// config files may be annotated.
func stripJSONComments(data []byte) []byte {
	const (
		stateNormal = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	state := stateNormal
	escaped := false
	out := bytes.Buffer{}

	for i := 0; i < len(data); i++ {
		c := data[i]
		next := byte(0)
		if i+1 < len(data) {
			next = data[i+1]
		}

		switch state {
		case stateNormal:
			if c == '"' {
				state = stateString
				out.WriteByte(c)
				continue
			}
			if c == '/' && next == '/' {
				state = stateLineComment
				i++
				continue
			}
			if c == '/' && next == '*' {
				state = stateBlockComment
				i++
				continue
			}
			out.WriteByte(c)
		case stateString:
			out.WriteByte(c)
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				out.WriteByte(c)
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNormal
				i++
			}
		}
	}

	return out.Bytes()
}
