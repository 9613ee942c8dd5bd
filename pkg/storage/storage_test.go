package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri     string
		bucket  string
		prefix  string
		wantErr bool
	}{
		{uri: "s3://bucket", bucket: "bucket"},
		{uri: "s3://bucket/runs/2024", bucket: "bucket", prefix: "runs/2024"},
		{uri: "s3:///nobucket", wantErr: true},
		{uri: "/local/path", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := ParseS3URI(tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, got.Bucket)
			assert.Equal(t, tt.prefix, got.Prefix)
		})
	}
}

func TestSplitURI(t *testing.T) {
	tests := []struct {
		uri     string
		dir     string
		name    string
		wantErr bool
	}{
		{uri: "s3://bucket/reports/ani.tsv", dir: "s3://bucket/reports", name: "ani.tsv"},
		{uri: "s3://bucket/report.tsv", dir: "s3://bucket", name: "report.tsv"},
		{uri: "ani.tsv", dir: ".", name: "ani.tsv"},
		{uri: "/ani.tsv", dir: "/", name: "ani.tsv"},
		{uri: "s3://bucket", wantErr: true},
		{uri: "s3://bucket/", wantErr: true},
		{uri: "s3://bucket/runs/", wantErr: true},
		{uri: "out/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			dir, name, err := splitURI(tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dir, dir)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestReadSourceBucketWithoutKey(t *testing.T) {
	_, err := ReadSource(context.Background(), "s3://bucket")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing object key")
}

func TestLocalStorageRoundTrip(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out")
	store := NewLocalStorage(base)
	require.NoError(t, store.MkdirAll())

	_, err := store.ReadFile("MAGs.tsv")
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, store.WriteFile("MAGs.tsv", []byte("genome\n")))

	data, err := store.ReadFile("MAGs.tsv")
	require.NoError(t, err)
	assert.Equal(t, "genome\n", string(data))
	assert.Equal(t, base, store.GetBasePath())
}

func TestCompressedReadSource(t *testing.T) {
	payload := []byte("Name\tCompleteness\tContamination\nMAG_1\t90\t1\n")

	for _, name := range []string{"report.tsv", "report.tsv.gz", "report.tsv.zst"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			store := NewLocalStorage(dir)
			require.NoError(t, WriteCompressed(store, name, payload))

			raw, err := os.ReadFile(filepath.Join(dir, name))
			require.NoError(t, err)
			if name != "report.tsv" {
				assert.NotEqual(t, payload, raw)
			}

			got, err := ReadSource(context.Background(), filepath.Join(dir, name))
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestReadSourceMissingFile(t *testing.T) {
	_, err := ReadSource(context.Background(), filepath.Join(t.TempDir(), "missing.tsv"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteDestination(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "scores.tsv.gz")
	payload := []byte("Name\tQS\nMAG_1\t85\n")

	require.NoError(t, WriteDestination(ctx, path, payload))

	got, err := ReadSource(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	assert.Error(t, WriteDestination(ctx, "out/", payload))
}
