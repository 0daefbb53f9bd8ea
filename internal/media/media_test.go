package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingUploader struct {
	inputs []UploadInput
	bodies []string
	failOn string
}

func (r *recordingUploader) Upload(_ context.Context, in UploadInput) (UploadResult, error) {
	if r.failOn != "" && strings.HasSuffix(in.Key, r.failOn) {
		return UploadResult{}, errors.New("denied")
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return UploadResult{}, err
	}
	r.inputs = append(r.inputs, in)
	r.bodies = append(r.bodies, string(data))
	return UploadResult{Key: in.Key, URL: "https://cdn.example.com/" + in.Key}, nil
}

func sessionDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "generated"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.md"), []byte("# Report"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "generated", "rec-01-lighting.png"), []byte("png"), 0o644))
	return dir
}

func TestArchiverUploadsUnderSessionID(t *testing.T) {
	dir := sessionDir(t)
	up := &recordingUploader{}
	archiver := NewArchiver(up)
	require.NotNil(t, archiver)

	urls, err := archiver.Archive(context.Background(), "20260101_000000_abcdef01", dir, []string{"report.md", filepath.Join("generated", "rec-01-lighting.png")})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://cdn.example.com/20260101_000000_abcdef01/report.md",
		"https://cdn.example.com/20260101_000000_abcdef01/generated/rec-01-lighting.png",
	}, urls)
	require.Len(t, up.inputs, 2)
	assert.Equal(t, "image/png", up.inputs[1].ContentType)
	assert.Equal(t, int64(8), up.inputs[0].Size)
	assert.Equal(t, "# Report", up.bodies[0])
}

func TestArchiverStopsOnFailure(t *testing.T) {
	dir := sessionDir(t)
	archiver := NewArchiver(&recordingUploader{failOn: "report.md"})

	urls, err := archiver.Archive(context.Background(), "s", dir, []string{"report.md", "generated/rec-01-lighting.png"})
	require.Error(t, err)
	assert.Empty(t, urls)

	_, err = archiver.Archive(context.Background(), "s", dir, []string{"missing.pdf"})
	assert.Error(t, err)
}

func TestNewArchiverDisabled(t *testing.T) {
	assert.Nil(t, NewArchiver(Disabled()))
	assert.Nil(t, NewArchiver(nil))

	u, err := NewUploader(context.Background(), Config{})
	require.NoError(t, err)
	assert.True(t, IsDisabled(u))
	_, err = u.Upload(context.Background(), UploadInput{})
	assert.ErrorIs(t, err, ErrUploaderDisabled)
}

func TestS3KeysAndURLs(t *testing.T) {
	u := newS3Uploader(nil, Config{Bucket: "designs", Region: "eu-north-1", KeyPrefix: "/sessions/"})
	assert.Equal(t, "sessions/abc/report.pdf", u.buildKey("abc/report.pdf", ""))
	assert.Equal(t, "https://designs.s3.eu-north-1.amazonaws.com/sessions/abc/report.pdf", u.objectURL("sessions/abc/report.pdf"))

	generated := u.buildKey("", "Photo.JPG")
	assert.True(t, strings.HasPrefix(generated, "sessions/"))
	assert.True(t, strings.HasSuffix(generated, ".jpg"))

	minio := newS3Uploader(nil, Config{Bucket: "b", Region: "us-east-1", Endpoint: "http://localhost:9000/", ForcePathStyle: true})
	assert.Equal(t, "http://localhost:9000/b/k", minio.objectURL("k"))

	cdn := newS3Uploader(nil, Config{Bucket: "b", Region: "r", PublicURL: "https://cdn.example.com/"})
	assert.Equal(t, "https://cdn.example.com/k", cdn.objectURL("k"))
}

func TestLocalUploader(t *testing.T) {
	l, err := NewLocalUploader(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	res, err := l.Upload(context.Background(), UploadInput{Filename: "../my room.jpg", Body: strings.NewReader("jpeg")})
	require.NoError(t, err)
	assert.Equal(t, l.BaseDir, filepath.Dir(res.Key))
	assert.True(t, strings.HasSuffix(res.Key, "-my_room.jpg"))

	data, err := os.ReadFile(res.Key)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	_, err = l.Upload(context.Background(), UploadInput{Filename: "x.jpg"})
	assert.Error(t, err)
}

func applyLoadOptions(t *testing.T, cfg Config) awsconfig.LoadOptions {
	t.Helper()
	var lo awsconfig.LoadOptions
	for _, opt := range loadOptions(cfg) {
		require.NoError(t, opt(&lo))
	}
	return lo
}

func TestLoadOptionsStaticCredentials(t *testing.T) {
	lo := applyLoadOptions(t, Config{
		Bucket:          "rooms",
		Region:          "eu-north-1",
		AccessKeyID:     "AKIA123",
		SecretAccessKey: "shh",
	})
	assert.Equal(t, "eu-north-1", lo.Region)
	require.NotNil(t, lo.Credentials)

	creds, err := lo.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIA123", creds.AccessKeyID)
	assert.Equal(t, "shh", creds.SecretAccessKey)
}

func TestLoadOptionsDefaultChain(t *testing.T) {
	lo := applyLoadOptions(t, Config{Bucket: "rooms", Region: "eu-north-1"})
	assert.Equal(t, "eu-north-1", lo.Region)
	assert.Nil(t, lo.Credentials)

	lo = applyLoadOptions(t, Config{Bucket: "rooms", Region: "eu-north-1", AccessKeyID: "AKIA123"})
	assert.Nil(t, lo.Credentials)
}
