// Package export serializes a profile's full journal to JSON and uploads
// it to S3-compatible object storage. Settings uses it to back a profile
// up before a destructive clear or account deletion.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	sc "github.com/spiralapp/journal/internal/config"
	"github.com/spiralapp/journal/internal/profiles"
	"github.com/spiralapp/journal/internal/tasks"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

// TaskReader is the slice of the task repository the exporter needs.
type TaskReader interface {
	ListDates(ctx context.Context, profileID string) ([]string, error)
	List(ctx context.Context, profileID, date string) ([]tasks.Entry, error)
}

// DateBucket is one exported calendar day.
type DateBucket struct {
	Date    string        `json:"date"`
	Entries []tasks.Entry `json:"entries"`
}

// Archive is the exported document layout.
type Archive struct {
	ProfileID  string       `json:"profile_id"`
	FullName   string       `json:"fullname"`
	UserName   string       `json:"username"`
	Email      string       `json:"email"`
	ExportedAt time.Time    `json:"exported_at"`
	Dates      []DateBucket `json:"dates"`
}

type Service struct {
	profiles profiles.Repository
	reader   TaskReader
	config   *sc.Config
}

func NewService(repo profiles.Repository, reader TaskReader, config *sc.Config) *Service {
	return &Service{profiles: repo, reader: reader, config: config}
}

// storageKey names the uploaded object under a per-day prefix.
func storageKey(profileID string) string {
	d := time.Now()
	return fmt.Sprintf("exports/%d/%d/%d/%s/%v.json", d.Year(), d.Month(), d.Day(), profileID, uuid.New())
}

func (s *Service) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Build assembles the archive document without uploading it.
func (s *Service) Build(ctx context.Context, profileID string) (*Archive, error) {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	dates, err := s.reader.ListDates(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("listing date buckets: %w", err)
	}

	archive := &Archive{
		ProfileID:  profile.ID,
		FullName:   profile.FullName,
		UserName:   profile.UserName,
		Email:      profile.Email,
		ExportedAt: time.Now().UTC(),
	}

	for _, date := range dates {
		entries, err := s.reader.List(ctx, profileID, date)
		if err != nil {
			return nil, fmt.Errorf("listing entries for %s: %w", date, err)
		}
		archive.Dates = append(archive.Dates, DateBucket{Date: date, Entries: entries})
	}

	return archive, nil
}

// Export builds the archive, uploads it and returns the storage key.
func (s *Service) Export(ctx context.Context, profileID string) (string, error) {
	archive, err := s.Build(ctx, profileID)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(archive)
	if err != nil {
		return "", err
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := storageKey(profileID)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading export: %w", err)
	}

	return key, nil
}
