package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration holds the settings shared by the gateway, listener and processor.
type Configuration struct {
	Address           string `env:"ADDRESS" envDefault:":8080"`
	ProcessorAddress  string `env:"PROCESSOR_ADDRESS" envDefault:":8081"`
	GRPCHealthAddress string `env:"GRPC_HEALTH_ADDRESS" envDefault:":9090"`
	CORSOrigins       string `env:"CORS_ORIGINS" envDefault:"*"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	RawBucket       string        `env:"RAW_BUCKET" envDefault:"streamshare-raw-videos"`
	ProcessedBucket string        `env:"PROCESSED_BUCKET" envDefault:"streamshare-processed-videos"`
	PublicBaseURL   string        `env:"PUBLIC_BASE_URL"`
	UploadURLTTL    time.Duration `env:"UPLOAD_URL_TTL" envDefault:"15m"`

	StorageDriver  string `env:"STORAGE_DRIVER" envDefault:"s3"`
	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	S3Endpoint     string `env:"S3_ENDPOINT"`
	MinioEndpoint  string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`

	DocstoreDriver     string `env:"DOCSTORE_DRIVER" envDefault:"postgrest"`
	SupabaseURL        string `env:"SUPABASE_URL"`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_KEY"`
	MongoURI           string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase      string `env:"MONGODB_DATABASE" envDefault:"streamshare"`
	DynamoTablePrefix  string `env:"DYNAMODB_TABLE_PREFIX" envDefault:"streamshare-"`

	IngestionQueueURL string        `env:"INGESTION_QUEUE_URL"`
	FinalizeQueueURL  string        `env:"FINALIZE_QUEUE_URL"`
	VisibilityTimeout time.Duration `env:"QUEUE_VISIBILITY_TIMEOUT" envDefault:"30m"`

	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`

	ProcessorMode   string `env:"PROCESSOR_MODE" envDefault:"pull"`
	WorkerCount     int    `env:"WORKER_COUNT" envDefault:"2"`
	WorkerQueueSize int    `env:"WORKER_QUEUE_SIZE" envDefault:"2"`
	ScratchDir      string `env:"SCRATCH_DIR"`
	FFmpegPath      string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	FFprobePath     string `env:"FFPROBE_PATH" envDefault:"ffprobe"`
}

// Load reads an optional .env file (or the given files) and then the
// process environment.
func Load(files ...string) (*Configuration, error) {
	// A missing .env is normal in deployed environments.
	_ = godotenv.Load(files...)

	cfg := &Configuration{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env.Parse cannot.
func (c *Configuration) Validate() error {
	switch c.StorageDriver {
	case "s3", "minio":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.DocstoreDriver {
	case "postgrest", "mongo", "dynamodb", "memory":
	default:
		return fmt.Errorf("unknown DOCSTORE_DRIVER %q", c.DocstoreDriver)
	}
	switch c.ProcessorMode {
	case "pull", "push", "both":
	default:
		return fmt.Errorf("unknown PROCESSOR_MODE %q", c.ProcessorMode)
	}
	if c.RawBucket == "" || c.ProcessedBucket == "" {
		return fmt.Errorf("RAW_BUCKET and PROCESSED_BUCKET must be set")
	}
	if c.UploadURLTTL <= 0 || c.UploadURLTTL > 15*time.Minute {
		return fmt.Errorf("UPLOAD_URL_TTL must be between 0 and 15m, got %s", c.UploadURLTTL)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1")
	}
	return nil
}
