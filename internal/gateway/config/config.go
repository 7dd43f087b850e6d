package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"alloclab/internal/validate"
)

type Config struct {
	Port        string
	Env         string
	HoursPerDay int

	Workspace WorkspaceConfig
	Upload    UploadConfig
	LLM       LLMConfig
}

// WorkspaceConfig selects the dataset/rules persistence backend.
// A non-empty PGDSN wins; otherwise workspaces go to the JSON file at Path.
type WorkspaceConfig struct {
	Path  string
	PGDSN string
}

type UploadConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type LLMConfig struct {
	APIKey string
	Model  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:        *port,
		Env:         env,
		HoursPerDay: loadHoursPerDay(),
		Workspace: WorkspaceConfig{
			Path:  firstNonEmpty(strings.TrimSpace(os.Getenv("ALLOC_WORKSPACE_PATH")), "tmp/workspaces.json"),
			PGDSN: strings.TrimSpace(os.Getenv("ALLOC_WORKSPACE_PG_DSN")),
		},
		Upload: loadUploadConfig(env),
		LLM: LLMConfig{
			APIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			Model:  firstNonEmpty(strings.TrimSpace(os.Getenv("ALLOC_LLM_MODEL")), "gemini-2.0-flash"),
		},
	}, nil
}

func loadHoursPerDay() int {
	raw := strings.TrimSpace(os.Getenv("ALLOC_HOURS_PER_DAY"))
	if raw == "" {
		return validate.DefaultHoursPerDay
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return validate.DefaultHoursPerDay
	}
	return v
}

func loadUploadConfig(env string) UploadConfig {
	endpoint := resolveUploadEndpoint(env)
	return UploadConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("UPLOAD_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("UPLOAD_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("UPLOAD_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("UPLOAD_S3_BUCKET")), "alloclab-uploads"),
		UseSSL:    resolveUploadUseSSL(env),
	}
}

func resolveUploadEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return firstNonEmpty(strings.TrimSpace(os.Getenv("UPLOAD_MINIO_ENDPOINT")), "minio:9000")
	}
	return strings.TrimSpace(os.Getenv("UPLOAD_S3_ENDPOINT"))
}

func resolveUploadUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("UPLOAD_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
