package blobstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testS3Config = S3Config{
	Region:        "us-east-1",
	AccessKey:     "minioadmin",
	SecretKey:     "minioadmin",
	Bucket:        "resumes",
	BaseEndpoint:  "http://127.0.0.1:9000",
	PresignExpiry: 10 * time.Minute,
}

// stubAWS replaces the client constructors and restores them after the test.
func stubAWS(t *testing.T) *s3.Options {
	t.Helper()

	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut, origGet, origDel, origPresign := putObject, getObject, deleteObject, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		putObject, getObject, deleteObject, presignGetObject = origPut, origGet, origDel, origPresign
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}

	captured := &s3.Options{}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(captured)
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
	return captured
}

func TestNewS3Store(t *testing.T) {
	opts := stubAWS(t)

	s, err := NewS3Store(context.Background(), testS3Config)
	require.NoError(t, err)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "resumes", s.bucket)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = NewS3Store(context.Background(), testS3Config)
	assert.EqualError(t, err, "load-fail")
}

func TestS3Store_PutGetDelete(t *testing.T) {
	stubAWS(t)
	s, err := NewS3Store(context.Background(), testS3Config)
	require.NoError(t, err)

	var put *s3.PutObjectInput
	putObject = func(_ *s3.Client, _ context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		put = in
		return &s3.PutObjectOutput{}, nil
	}
	require.NoError(t, s.Put(context.Background(), "k1", []byte("hello"), "text/markdown"))
	assert.Equal(t, "resumes", *put.Bucket)
	assert.Equal(t, "k1", *put.Key)
	assert.Equal(t, int64(5), *put.ContentLength)
	assert.Equal(t, "text/markdown", *put.ContentType)

	getObject = func(_ *s3.Client, _ context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		if *in.Key == "missing" {
			return nil, &types.NoSuchKey{}
		}
		if *in.Key == "broken" {
			return nil, errors.New("boom")
		}
		return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("hello"))}, nil
	}
	got, err := s.Get(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	_, err = s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.Get(context.Background(), "broken")
	assert.ErrorContains(t, err, "boom")

	var deleted string
	deleteObject = func(_ *s3.Client, _ context.Context, in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
		deleted = *in.Key
		return &s3.DeleteObjectOutput{}, nil
	}
	require.NoError(t, s.Delete(context.Background(), "k1"))
	assert.Equal(t, "k1", deleted)
}

func TestS3Store_PresignGet(t *testing.T) {
	stubAWS(t)
	s, err := NewS3Store(context.Background(), testS3Config)
	require.NoError(t, err)

	var gotOpts s3.PresignOptions
	presignGetObject = func(_ *s3.PresignClient, _ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		for _, fn := range optFns {
			fn(&gotOpts)
		}
		assert.Equal(t, `attachment; filename="resume_s1.md"`, *in.ResponseContentDisposition)
		return &v4.PresignedHTTPRequest{URL: "http://127.0.0.1:9000/resumes/k1?X-Amz-Signature=x"}, nil
	}

	before := time.Now()
	url, exp, err := s.PresignGet(context.Background(), "k1", "resume_s1.md")
	require.NoError(t, err)
	assert.Contains(t, url, "/resumes/k1")
	assert.Equal(t, 10*time.Minute, gotOpts.Expires)
	assert.WithinDuration(t, before.Add(10*time.Minute), exp, time.Second)

	presignGetObject = func(_ *s3.PresignClient, _ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-fail")
	}
	_, _, err = s.PresignGet(context.Background(), "k1", "")
	assert.EqualError(t, err, "presign-fail")
}
