package main

import "time"

type Config struct {
	Host              string `env:"HOST,default=localhost"`
	Port              int    `env:"PORT,default=8080"`
	LogLevel          string `env:"LOG_LEVEL,default=info"`
	ModelMetadataPath string `env:"MODEL_METADATA_PATH,required=true"`

	// Empty path disables the expense categorisation endpoint.
	TransactionMetadataPath string `env:"TRANSACTION_METADATA_PATH"`

	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	LLMModel        string `env:"LLM_MODEL"`
	TavilyAPIKey    string `env:"TAVILY_API_KEY"`

	// Empty path keeps the web search cache in memory.
	SearchCachePath string `env:"SEARCH_CACHE_PATH"`

	TokenDelay           time.Duration `env:"TOKEN_DELAY,default=30ms"`
	HeartbeatInterval    time.Duration `env:"HEARTBEAT_INTERVAL,default=15s"`
	StatsInterval        time.Duration `env:"STATS_INTERVAL,default=1m"`
	OODDecisionThreshold int           `env:"OOD_DECISION_THRESHOLD,default=2"`
}
