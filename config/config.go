package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

type Config struct {
	CockroachURL    string        `ff:"long: cockroach-url, default: postgresql://root@127.0.0.1:26257/defaultdb?sslmode=disable, usage: URL for the CockroachDB database"`
	NatsURL         string        `ff:"long: nats-url, default: nats://127.0.0.1:4222, usage: URL for the NATS server"`
	Port            uint32        `ff:"long: port, short: p, default: 4000, usage: Port for the HTTP server"`
	MinioEndpoint   string        `ff:"long: minio-endpoint, default: localhost:9000, usage: MinIO endpoint"`
	MinioAccessKey  string        `ff:"long: minio-access-key, default: minioadmin, usage: MinIO access key"`
	MinioSecretKey  string        `ff:"long: minio-secret-key, default: minioadmin, usage: MinIO secret key"`
	MinioSecure     bool          `ff:"long: minio-secure, default: false, usage: Use secure connection to MinIO"`
	MediaURLPrefix  string        `ff:"long: media-url-prefix, default: http://localhost:9000/message-media/, usage: Public URL prefix for uploaded media"`
	TokenKey        string        `ff:"long: token-key, default: ripple-insecure-dev-key-32-bytes, usage: 32-byte key for branca session tokens"`
	QueueTimeout    time.Duration `ff:"long: queue-timeout, default: 5m, usage: How long a user waits in the match queue before timing out"`
	MatchDebounce   time.Duration `ff:"long: match-debounce, default: 200ms, usage: Trailing-edge debounce for queue change notifications"`
	CleanupTimeout  time.Duration `ff:"long: cleanup-timeout, default: 5s, usage: Timeout for background cleanup operations"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	fs := ff.NewFlagSetFrom("ripple", &cfg)
	err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("RIPPLE"))
	if errors.Is(err, ff.ErrHelp) {
		fmt.Println(ffhelp.Flags(fs))
		os.Exit(0)
	}

	return cfg, err
}
