package export

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "github.com/spiralapp/journal/internal/config"
	"github.com/spiralapp/journal/internal/logging"
	"github.com/spiralapp/journal/internal/profiles"
	"github.com/spiralapp/journal/internal/tasks"
)

func newTestService(t *testing.T) (*Service, *tasks.Repository, string) {
	t.Helper()

	repo := profiles.NewInMemoryRepository()
	require.NoError(t, repo.Create(context.Background(), &profiles.Profile{
		ID: "p1", FullName: "Ada Lovelace", Email: "ada@example.com", UserName: "ada",
	}))

	taskRepo := tasks.NewRepository(tasks.NewInMemoryStore(), logging.Nop{})

	cfg := &sc.Config{}
	cfg.LoadDefaults()
	return NewService(repo, taskRepo, cfg), taskRepo, "p1"
}

func TestBuild(t *testing.T) {
	svc, taskRepo, profileID := newTestService(t)
	ctx := context.Background()

	_, err := taskRepo.AddTask(ctx, profileID, "2026-08-28", "water plants")
	require.NoError(t, err)
	_, err = taskRepo.AddTask(ctx, profileID, "2026-08-29", "buy milk")
	require.NoError(t, err)
	_, err = taskRepo.AddTask(ctx, profileID, "2026-08-29", "call mom")
	require.NoError(t, err)

	archive, err := svc.Build(ctx, profileID)
	require.NoError(t, err)

	assert.Equal(t, "p1", archive.ProfileID)
	assert.Equal(t, "ada", archive.UserName)
	assert.False(t, archive.ExportedAt.IsZero())

	require.Len(t, archive.Dates, 2)
	assert.Equal(t, "2026-08-28", archive.Dates[0].Date)
	assert.Len(t, archive.Dates[0].Entries, 1)
	assert.Len(t, archive.Dates[1].Entries, 2)
}

func TestBuild_UnknownProfile(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Build(context.Background(), "ghost")
	assert.Error(t, err)
}

func TestExport_UploadsArchive(t *testing.T) {
	svc, taskRepo, profileID := newTestService(t)
	ctx := context.Background()

	_, err := taskRepo.AddTask(ctx, profileID, "2026-08-29", "water plants")
	require.NoError(t, err)

	origLoad, origNew, origPut := loadDefaultAWSConfig, newS3ClientFromConfig, putObject
	t.Cleanup(func() {
		loadDefaultAWSConfig, newS3ClientFromConfig, putObject = origLoad, origNew, origPut
	})

	var uploaded *s3.PutObjectInput
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return nil
	}
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		uploaded = in
		return &s3.PutObjectOutput{}, nil
	}

	key, err := svc.Export(ctx, profileID)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "exports/"), key)
	assert.True(t, strings.HasSuffix(key, ".json"), key)
	assert.Contains(t, key, profileID)

	require.NotNil(t, uploaded)
	assert.Equal(t, "journal-exports", *uploaded.Bucket)
	assert.Equal(t, key, *uploaded.Key)

	body, err := io.ReadAll(uploaded.Body)
	require.NoError(t, err)

	var archive Archive
	require.NoError(t, json.Unmarshal(body, &archive))
	assert.Equal(t, profileID, archive.ProfileID)
	require.Len(t, archive.Dates, 1)
	assert.Equal(t, "water plants", archive.Dates[0].Entries[0].Task)
}
