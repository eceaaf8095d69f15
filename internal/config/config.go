package config

import (
	"github.com/caarlos0/env/v10"
	"go.uber.org/zap"
)

// Config centraliza la configuración del servicio.
type Config struct {
	// Azure OpenAI
	OpenAIAPIKey              string `env:"AZURE_OPENAI_API_KEY"`
	OpenAIEndpoint            string `env:"AZURE_OPENAI_ENDPOINT"`
	OpenAIDeploymentName      string `env:"AZURE_OPENAI_DEPLOYMENT_NAME" envDefault:"gpt-4"`
	OpenAIAPIVersion          string `env:"AZURE_OPENAI_API_VERSION" envDefault:"2024-02-01"`
	OpenAIEmbeddingDeployment string `env:"AZURE_OPENAI_EMBEDDING_DEPLOYMENT" envDefault:"text-embedding-3-small"`

	// Azure AI Search
	SearchEndpoint  string `env:"AZURE_SEARCH_ENDPOINT"`
	SearchAPIKey    string `env:"AZURE_SEARCH_API_KEY"`
	SearchIndexName string `env:"AZURE_SEARCH_INDEX_NAME" envDefault:"knowledge-base"`

	// Storage: vacío => almacenamiento en memoria.
	DatabaseURL string `env:"DATABASE_URL"`

	// Redis opcional para cachear resultados de búsqueda.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	HTTPPort    string `env:"HTTP_PORT" envDefault:"8000"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WarnMissing advierte (sin abortar) sobre variables requeridas ausentes.
// El servicio arranca igual: las features que dependan de ellas se degradan.
func (c *Config) WarnMissing(logger *zap.Logger) {
	required := []struct {
		name  string
		value string
	}{
		{"AZURE_OPENAI_API_KEY", c.OpenAIAPIKey},
		{"AZURE_OPENAI_ENDPOINT", c.OpenAIEndpoint},
		{"AZURE_SEARCH_ENDPOINT", c.SearchEndpoint},
		{"AZURE_SEARCH_API_KEY", c.SearchAPIKey},
	}

	var missing []string
	for _, v := range required {
		if v.value == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		logger.Warn("missing environment variables, some features may not work correctly",
			zap.Strings("missing", missing))
	}
}
