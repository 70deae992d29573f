package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config is the server configuration. Values come from defaults, then an
// optional HCL file, then environment variables.
type Config struct {
	Port          string         `hcl:"port,optional"`
	WordList      string         `hcl:"word_list,optional"`
	MinWordLength int            `hcl:"min_word_length,optional"`
	SolveWorkers  int            `hcl:"solve_workers,optional"`
	LogLevel      string         `hcl:"log_level,optional"`
	LogFormat     string         `hcl:"log_format,optional"`
	GCPProjectID  string         `hcl:"gcp_project_id,optional"`
	GCPRegion     string         `hcl:"gcp_region,optional"`
	GeminiModel   string         `hcl:"gemini_model,optional"`
	Storage       *StorageConfig `hcl:"storage,block"`
}

func defaultConfig() Config {
	return Config{
		Port:          "8080",
		WordList:      "word_list_scrabble_2019.txt",
		MinWordLength: 3,
		LogLevel:      "info",
		LogFormat:     "text",
		Storage:       &StorageConfig{},
	}
}

// LoadConfig builds the configuration. path may be empty.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		var file Config
		if err := hclsimple.DecodeFile(path, nil, &file); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
		cfg.merge(file)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// merge copies the non-zero fields of o into c.
func (c *Config) merge(o Config) {
	setString(&c.Port, o.Port)
	setString(&c.WordList, o.WordList)
	setString(&c.LogLevel, o.LogLevel)
	setString(&c.LogFormat, o.LogFormat)
	setString(&c.GCPProjectID, o.GCPProjectID)
	setString(&c.GCPRegion, o.GCPRegion)
	setString(&c.GeminiModel, o.GeminiModel)
	if o.MinWordLength != 0 {
		c.MinWordLength = o.MinWordLength
	}
	if o.SolveWorkers != 0 {
		c.SolveWorkers = o.SolveWorkers
	}
	if o.Storage != nil {
		setString(&c.Storage.AWSRegion, o.Storage.AWSRegion)
		setString(&c.Storage.MinioEndpoint, o.Storage.MinioEndpoint)
		setString(&c.Storage.MinioAccessKey, o.Storage.MinioAccessKey)
		setString(&c.Storage.MinioSecretKey, o.Storage.MinioSecretKey)
		c.Storage.MinioSecure = c.Storage.MinioSecure || o.Storage.MinioSecure
	}
}

func (c *Config) applyEnv() error {
	setString(&c.Port, os.Getenv("PORT"))
	setString(&c.WordList, os.Getenv("WORD_LIST"))
	setString(&c.LogLevel, os.Getenv("LOG_LEVEL"))
	setString(&c.LogFormat, os.Getenv("LOG_FORMAT"))
	setString(&c.GCPProjectID, os.Getenv("GCP_PROJECT_ID"))
	setString(&c.GCPRegion, os.Getenv("GCP_REGION"))
	setString(&c.GeminiModel, os.Getenv("GEMINI_MODEL"))
	setString(&c.Storage.AWSRegion, os.Getenv("AWS_REGION"))
	setString(&c.Storage.MinioEndpoint, os.Getenv("MINIO_ENDPOINT"))
	setString(&c.Storage.MinioAccessKey, os.Getenv("MINIO_ACCESS_KEY"))
	setString(&c.Storage.MinioSecretKey, os.Getenv("MINIO_SECRET_KEY"))

	for name, dst := range map[string]*int{
		"MIN_WORD_LENGTH": &c.MinWordLength,
		"SOLVE_WORKERS":   &c.SolveWorkers,
	} {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
		}
	}
	if v := os.Getenv("MINIO_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MINIO_SECURE: %w", err)
		}
		c.Storage.MinioSecure = secure
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
