package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	appContext "github.com/alphabatem/common/context"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

// MediaService hosts badge token metadata as externally hosted JSON in
// object storage. Score NFTs use inline data URIs instead (BuildDataURI);
// badge metadata is stable and shared across players so it lives at a
// public, predictable path.
//
// Optional: without MINIO_ENDPOINT configured, badge token URIs fall back to
// inline data URIs too.
type MediaService struct {
	appContext.DefaultService

	client     *minio.Client
	bucketName string
	endpoint   string
	accessKey  string
	secretKey  string
	publicBase string
	useSSL     bool
}

const MEDIA_SVC = "media_svc"

func (svc MediaService) Id() string {
	return MEDIA_SVC
}

func (svc *MediaService) Configure(ctx *appContext.Context) error {
	svc.endpoint = os.Getenv("MINIO_ENDPOINT")
	svc.accessKey = os.Getenv("MINIO_ACCESS_KEY")
	svc.secretKey = os.Getenv("MINIO_SECRET_KEY")
	svc.useSSL = os.Getenv("MINIO_USE_SSL") == "true"

	svc.bucketName = os.Getenv("MINIO_BUCKET_NAME")
	if svc.bucketName == "" {
		svc.bucketName = "arcade-badges"
	}

	svc.publicBase = os.Getenv("MEDIA_PUBLIC_BASE_URL")

	return svc.DefaultService.Configure(ctx)
}

func (svc *MediaService) Start() error {
	if svc.endpoint == "" {
		log.Warn("MINIO_ENDPOINT not configured; badge metadata served as data URIs")
		return nil
	}

	client, err := minio.New(svc.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(svc.accessKey, svc.secretKey, ""),
		Secure: svc.useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %v", err)
	}
	svc.client = client

	if err := svc.ensureBucket(); err != nil {
		return fmt.Errorf("failed to ensure bucket exists: %v", err)
	}

	log.Printf("Media service started successfully with endpoint: %s", svc.endpoint)
	return nil
}

func (svc *MediaService) ensureBucket() error {
	ctx := context.Background()

	exists, err := svc.client.BucketExists(ctx, svc.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %v", err)
	}

	if !exists {
		if err := svc.client.MakeBucket(ctx, svc.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %v", err)
		}
		log.Printf("Created MinIO bucket: %s", svc.bucketName)
	}

	return nil
}

// TokenMetadata is the ERC-721 metadata JSON document.
type TokenMetadata struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Image       string           `json:"image,omitempty"`
	Attributes  []TokenAttribute `json:"attributes,omitempty"`
}

type TokenAttribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// BadgeTokenURI uploads (or reuses) the badge's metadata JSON and returns
// its public URL. Uploads are idempotent per badge id.
func (svc *MediaService) BadgeTokenURI(badgeID string, meta TokenMetadata) (string, error) {
	if svc.client == nil {
		return BuildDataURI(meta)
	}

	objectName := fmt.Sprintf("badges/%s.json", badgeID)
	ctx := context.Background()

	if _, err := svc.client.StatObject(ctx, svc.bucketName, objectName, minio.StatObjectOptions{}); err != nil {
		payload, err := json.Marshal(meta)
		if err != nil {
			return "", err
		}
		_, err = svc.client.PutObject(ctx, svc.bucketName, objectName,
			bytes.NewReader(payload), int64(len(payload)),
			minio.PutObjectOptions{ContentType: "application/json"})
		if err != nil {
			return "", fmt.Errorf("failed to upload badge metadata: %v", err)
		}
	}

	if svc.publicBase != "" {
		return fmt.Sprintf("%s/%s/%s", svc.publicBase, svc.bucketName, objectName), nil
	}

	scheme := "http"
	if svc.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, svc.endpoint, svc.bucketName, objectName), nil
}

// BuildDataURI inlines the metadata as a base64 data URI, the format score
// NFTs always use.
func BuildDataURI(meta TokenMetadata) (string, error) {
	payload, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	return "data:application/json;base64," + base64.StdEncoding.EncodeToString(payload), nil
}
