package config

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
)

type Config struct {
	MinIOBucket string        `yaml:"minio_bucket"`
	App         App           `yaml:"app"`
	DB          *sql.DB       `yaml:"db"`
	Queue       *RabbitMQ     `yaml:"rabbitmq"`
	Storage     *minio.Client `yaml:"storage"`
	Server      Server        `yaml:"server"`
	Auth        Auth          `yaml:"auth"`
	Limits      Limits        `yaml:"limits"`
	Reconcile   Reconcile     `yaml:"reconcile"`
}

type App struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
}

type Server struct {
	HttpPort string `yaml:"http_port"`
	Workers  int    `yaml:"workers"`
}

type RabbitMQ struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type Limits struct {
	// MaxUploadBytes caps both direct-upload payloads and remote fetch
	// bodies before they are buffered.
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	SignedURLTTL   time.Duration `yaml:"signed_url_ttl"`
}

type Reconcile struct {
	Interval time.Duration `yaml:"interval"`
	// GracePeriod keeps freshly written objects out of the sweep so an
	// in-flight ingestion is never mistaken for an orphan.
	GracePeriod time.Duration `yaml:"grace_period"`
}

const (
	defaultMaxUploadBytes = 100 << 20
	defaultFetchTimeout   = 2 * time.Minute
	defaultSignedURLTTL   = time.Hour
	defaultSweepInterval  = time.Hour
	defaultSweepGrace     = 24 * time.Hour
)

func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", viper.GetString("postgresql_host"))
	if err != nil {
		return nil, err
	}

	rabbitmq := &RabbitMQ{
		Host:         viper.GetString("rabbitmq_host"),
		Port:         viper.GetInt("rabbitmq_port"),
		User:         viper.GetString("rabbitmq_user"),
		Pass:         viper.GetString("rabbitmq_pass"),
		ExchangeName: viper.GetString("rabbitmq_exchange"),
		Kind:         viper.GetString("rabbitmq_kind"),
	}

	minioClient, err := minio.New(viper.GetString("minio.url"), &minio.Options{
		Creds:  credentials.NewStaticV4(viper.GetString("minio.access_id"), viper.GetString("minio.secret_access_key"), ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}

	limits := Limits{
		MaxUploadBytes: viper.GetInt64("limits.max_upload_bytes"),
		FetchTimeout:   viper.GetDuration("limits.fetch_timeout"),
		SignedURLTTL:   viper.GetDuration("limits.signed_url_ttl"),
	}
	if limits.MaxUploadBytes <= 0 {
		limits.MaxUploadBytes = defaultMaxUploadBytes
	}
	if limits.FetchTimeout <= 0 {
		limits.FetchTimeout = defaultFetchTimeout
	}
	if limits.SignedURLTTL <= 0 {
		limits.SignedURLTTL = defaultSignedURLTTL
	}

	reconcile := Reconcile{
		Interval:    viper.GetDuration("reconcile.interval"),
		GracePeriod: viper.GetDuration("reconcile.grace_period"),
	}
	if reconcile.Interval <= 0 {
		reconcile.Interval = defaultSweepInterval
	}
	if reconcile.GracePeriod <= 0 {
		reconcile.GracePeriod = defaultSweepGrace
	}

	return &Config{
		MinIOBucket: viper.GetString("minio.bucket"),
		App: App{
			Environment: viper.GetString("app.environment"),
			Host:        viper.GetString("app.host"),
			Protocol:    viper.GetString("app.protocol"),
		},
		Server: Server{
			HttpPort: viper.GetString("server.port"),
			Workers:  viper.GetInt("server.workers"),
		},
		Auth: Auth{
			JWTSecret: viper.GetString("auth.jwt_secret"),
		},
		Limits:    limits,
		Reconcile: reconcile,
		DB:        db,
		Queue:     rabbitmq,
		Storage:   minioClient,
	}, nil
}
