package main

import (
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	JiraURL      string   `yaml:"jira_url"`
	JiraEmail    string   `yaml:"jira_email"`
	JiraToken    string   `yaml:"jira_token"`
	JiraProjects []string `yaml:"jira_projects"`

	GitHubToken string   `yaml:"github_token"`
	GitHubRepos []string `yaml:"github_repos"` // "owner/repo"

	SlackBotToken string   `yaml:"slack_bot_token"`
	SlackChannels []string `yaml:"slack_channels"`

	DBPath           string `yaml:"db_path"`
	OutputDir        string `yaml:"output_dir"`
	RulesPath        string `yaml:"rules_path"`
	RulesOverlayPath string `yaml:"rules_overlay_path"`

	GatherWindowDays int    `yaml:"gather_window_days"`
	Schedule         string `yaml:"schedule"` // cron spec for serve mode

	LLMModel        string `yaml:"llm_model"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`

	HTTPTimeoutSeconds int `yaml:"http_timeout_seconds"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.JiraURL, "JIRA_URL")
	envOverride(&cfg.JiraEmail, "JIRA_EMAIL")
	envOverride(&cfg.JiraToken, "JIRA_TOKEN")
	envOverrideList(&cfg.JiraProjects, "JIRA_PROJECTS")
	envOverride(&cfg.GitHubToken, "GITHUB_TOKEN")
	envOverrideList(&cfg.GitHubRepos, "GITHUB_REPOS")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverrideList(&cfg.SlackChannels, "SLACK_CHANNELS")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.OutputDir, "OUTPUT_DIR")
	envOverride(&cfg.RulesPath, "RULES_PATH")
	envOverride(&cfg.RulesOverlayPath, "RULES_OVERLAY_PATH")
	envOverrideInt(&cfg.GatherWindowDays, "GATHER_WINDOW_DAYS")
	envOverride(&cfg.Schedule, "SCHEDULE")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverrideInt(&cfg.HTTPTimeoutSeconds, "HTTP_TIMEOUT_SECONDS")

	// Defaults
	if cfg.DBPath == "" {
		cfg.DBPath = "./supportlens.db"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.RulesPath == "" {
		cfg.RulesPath = "./rules.yaml"
	}
	if cfg.RulesOverlayPath == "" {
		cfg.RulesOverlayPath = "./rules.custom.yaml"
	}
	if cfg.GatherWindowDays == 0 {
		cfg.GatherWindowDays = 30
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "0 */6 * * *"
	}

	if cfg.GatherWindowDays < 1 {
		log.Fatalf("invalid gather_window_days '%d': must be >= 1", cfg.GatherWindowDays)
	}
	if cfg.HTTPTimeoutSeconds < 0 {
		log.Fatalf("invalid http_timeout_seconds '%d': must be >= 0", cfg.HTTPTimeoutSeconds)
	}
	if cfg.HTTPTimeoutSeconds == 0 {
		cfg.HTTPTimeoutSeconds = 30
	}

	return cfg
}

// requireGatherConfig validates that at least one source is fully
// configured. gather and serve call it; analyze-only runs do not need
// source credentials.
func (c Config) requireGatherConfig() {
	configured := 0
	if len(c.JiraProjects) > 0 {
		if c.JiraURL == "" || c.JiraToken == "" {
			log.Fatalf("jira_projects set but jira_url or jira_token missing")
		}
		configured++
	}
	if len(c.GitHubRepos) > 0 {
		if c.GitHubToken == "" {
			log.Fatalf("github_repos set but github_token missing")
		}
		configured++
	}
	if len(c.SlackChannels) > 0 {
		if c.SlackBotToken == "" {
			log.Fatalf("slack_channels set but slack_bot_token missing")
		}
		configured++
	}
	if configured == 0 {
		log.Fatalf("no sources configured: set jira_projects, github_repos or slack_channels")
	}
}

func (c Config) requireLLMConfig() {
	if c.AnthropicAPIKey == "" {
		log.Fatalf("anthropic_api_key is required for LLM suggestions")
	}
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideList(field *[]string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		var out []string
		for _, item := range strings.Split(val, ",") {
			item = strings.TrimSpace(item)
			if item != "" {
				out = append(out, item)
			}
		}
		*field = out
	}
}
