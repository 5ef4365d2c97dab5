package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/cellknn/blobstore"
	minioblob "github.com/hupe1980/cellknn/blobstore/minio"
	s3blob "github.com/hupe1980/cellknn/blobstore/s3"
)

type DataConfig struct {
	// Backend selects where matrices are read from: "local" (default),
	// "s3" or "minio".
	Backend string `yaml:"backend"`

	// Dir is the root directory for the local backend.
	Dir string `yaml:"dir"`

	// Bucket and Prefix locate matrices for the s3 and minio backends.
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix,omitempty"`

	// Endpoint is the minio server address, e.g. "localhost:9000".
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	UseSSL    bool   `yaml:"use_ssl,omitempty"`

	// UseKey names the embedding matrix, e.g. "X_pca".
	UseKey string `yaml:"use_key,omitempty"`

	// Obs is the path of the per-row metadata CSV (header row).
	Obs string `yaml:"obs"`
}

type HNSWConfig struct {
	M        int `yaml:"m,omitempty"`
	EF       int `yaml:"ef,omitempty"`
	EFSearch int `yaml:"ef_search,omitempty"`
}

type ForestConfig struct {
	NumTrees int `yaml:"n_trees,omitempty"`
	SearchK  int `yaml:"search_k,omitempty"`
}

type IndexConfig struct {
	// Backend selects the index: "hnsw" (default) or "forest".
	Backend string `yaml:"backend,omitempty"`

	// Space is the distance space: "euclidean" (default), "cosine"
	// or "dot".
	Space string `yaml:"space,omitempty"`

	K           int `yaml:"k,omitempty"`
	Parallelism int `yaml:"parallelism,omitempty"`

	HNSW   HNSWConfig   `yaml:"hnsw,omitempty"`
	Forest ForestConfig `yaml:"forest,omitempty"`
}

type Config struct {
	Data  DataConfig  `yaml:"data"`
	Index IndexConfig `yaml:"index,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Backend: "local",
			Dir:     ".",
			UseKey:  "X_pca",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Data.Backend == "" {
		cfg.Data.Backend = "local"
	}
	if cfg.Data.UseKey == "" {
		cfg.Data.UseKey = "X_pca"
	}

	return cfg, nil
}

func newBlobStore(ctx context.Context, dc DataConfig) (blobstore.Store, error) {
	switch dc.Backend {
	case "local":
		dir := dc.Dir
		if dir == "" {
			dir = "."
		}
		return blobstore.NewLocalStore(dir), nil
	case "s3":
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return s3blob.NewStore(s3.NewFromConfig(awsCfg), dc.Bucket, dc.Prefix), nil
	case "minio":
		client, err := minio.New(dc.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(dc.AccessKey, dc.SecretKey, ""),
			Secure: dc.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return minioblob.NewStore(client, dc.Bucket, dc.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown data backend %q", dc.Backend)
	}
}
