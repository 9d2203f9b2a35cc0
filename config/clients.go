package config

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
	supa "github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/api/option"

	"streamshare/internal/auth"
	"streamshare/internal/db"
	"streamshare/internal/storage"
)

// AWSConfig loads the default AWS SDK configuration for cfg.AWSRegion.
func AWSConfig(ctx context.Context, cfg *Configuration) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return awsCfg, nil
}

// NewDocumentStore connects the document store selected by DOCSTORE_DRIVER.
// The returned close function releases the connection.
func NewDocumentStore(ctx context.Context, cfg *Configuration, log *logrus.Logger) (db.Store, func(), error) {
	noop := func() {}
	switch cfg.DocstoreDriver {
	case "memory":
		log.Warn("Using in-memory document store; data is lost on exit")
		return db.NewMemoryStore(), noop, nil

	case "postgrest":
		if cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "" {
			return nil, noop, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY must be set for the postgrest driver")
		}
		client, err := supa.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, nil)
		if err != nil {
			return nil, noop, fmt.Errorf("error initializing Supabase client: %w", err)
		}
		log.Info("Supabase client initialized successfully.")
		return db.NewPostgrestStore(client), noop, nil

	case "mongo":
		client, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(ctx)
			return nil, noop, fmt.Errorf("failed to ping MongoDB: %w", err)
		}
		log.WithField("database", cfg.MongoDatabase).Info("MongoDB client connected")
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.WithError(err).Warn("MongoDB disconnect failed")
			}
		}
		return db.NewMongoStore(client.Database(cfg.MongoDatabase)), closeFn, nil

	case "dynamodb":
		awsCfg, err := AWSConfig(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		return db.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTablePrefix), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown DOCSTORE_DRIVER %q", cfg.DocstoreDriver)
}

// NewObjectStore builds the object store selected by STORAGE_DRIVER.
func NewObjectStore(ctx context.Context, cfg *Configuration, log *logrus.Logger) (storage.ObjectStore, error) {
	switch cfg.StorageDriver {
	case "minio":
		client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
			Secure: cfg.MinioUseSSL,
			Region: cfg.AWSRegion,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create MinIO client: %w", err)
		}
		return storage.NewMinioStore(client, cfg.PublicBaseURL, log), nil

	case "s3":
		awsCfg, err := AWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.S3Endpoint)
				o.UsePathStyle = true
			}
		})
		return storage.NewS3Store(client, cfg.AWSRegion, cfg.PublicBaseURL, log), nil
	}
	return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
}

// NewSQSClient builds the SQS client used for ingestion and finalize queues.
func NewSQSClient(ctx context.Context, cfg *Configuration) (*sqs.Client, error) {
	awsCfg, err := AWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return sqs.NewFromConfig(awsCfg), nil
}

// NewTokenVerifier initializes the Firebase Admin SDK auth client.
func NewTokenVerifier(ctx context.Context, cfg *Configuration) (auth.TokenVerifier, error) {
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Firebase auth client: %w", err)
	}
	return auth.NewFirebaseVerifier(client), nil
}
