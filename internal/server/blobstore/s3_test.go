package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	lengths []int64
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Key] = b
	f.lengths = append(f.lengths, aws.ToInt64(in.ContentLength))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := &S3Store{client: fake, bucket: "vault"}

	n, err := s.Put(ctx, "k1", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, []int64{7}, fake.lengths)

	ok, err := s.Exists(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Open(ctx, "k1")
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "payload", string(b))

	require.NoError(t, s.Delete(ctx, "k1"))
	ok, err = s.Exists(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Open(ctx, "k1")
	assert.ErrorIs(t, err, common.ErrBlobMissing)
}

func TestS3Store_PutSpoolsNonSeekable(t *testing.T) {
	fake := newFakeS3()
	s := &S3Store{client: fake, bucket: "vault"}

	r := io.MultiReader(strings.NewReader("ab"), strings.NewReader("cd"))
	n, err := s.Put(context.Background(), "k2", r)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, "abcd", string(fake.objects["k2"]))
}

func TestS3Store_PutError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("denied")
	s := &S3Store{client: fake, bucket: "vault"}

	_, err := s.Put(context.Background(), "k", strings.NewReader("x"))
	require.EqualError(t, err, "denied")
}

func TestNewS3Store_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("cfg boom")
	}
	defer func() { loadDefaultAWSConfig = orig }()

	_, err := NewS3Store(context.Background(), S3Options{Bucket: "vault"})
	require.EqualError(t, err, "cfg boom")
}

func TestNewS3Store_UsesPathStyleEndpoint(t *testing.T) {
	origClient := newS3ClientFromConfig
	var got s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		for _, fn := range optFns {
			fn(&got)
		}
		return newFakeS3()
	}
	defer func() { newS3ClientFromConfig = origClient }()

	s, err := NewS3Store(context.Background(), S3Options{
		User: "u", Password: "p", Bucket: "vault", Region: "us-east-1", Endpoint: "http://minio:9000/",
	})
	require.NoError(t, err)
	assert.Equal(t, "vault", s.bucket)
	assert.True(t, got.UsePathStyle)
	assert.Equal(t, "http://minio:9000/", aws.ToString(got.BaseEndpoint))
}
