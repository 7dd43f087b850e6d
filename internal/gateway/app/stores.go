package app

import (
	"log"

	"alloclab/internal/gateway/config"
	"alloclab/internal/gateway/repository/uploadstore"
)

// initUploadStore picks minio when configured, with an in-memory fallback so
// the gateway always starts.
func initUploadStore(cfg *config.Config) uploadstore.Store {
	if !cfg.Upload.Enabled || cfg.Upload.AccessKey == "" || cfg.Upload.SecretKey == "" {
		log.Printf("upload store: in-memory (s3 config incomplete)")
		return uploadstore.NewMemoryStore()
	}
	s3Store, err := uploadstore.NewS3Store(uploadstore.S3Config{
		Endpoint:  cfg.Upload.Endpoint,
		Region:    cfg.Upload.Region,
		AccessKey: cfg.Upload.AccessKey,
		SecretKey: cfg.Upload.SecretKey,
		Bucket:    cfg.Upload.Bucket,
		UseSSL:    cfg.Upload.UseSSL,
	})
	if err != nil {
		log.Printf("upload store: in-memory fallback (%v)", err)
		return uploadstore.NewMemoryStore()
	}
	log.Printf("upload store: s3 bucket=%s endpoint=%s", cfg.Upload.Bucket, cfg.Upload.Endpoint)
	return s3Store
}
