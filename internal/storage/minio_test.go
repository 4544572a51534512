package storage

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNewMinioStore_RequiresEndpointAndBucket(t *testing.T) {
	if _, err := NewMinioStore(MinioConfig{Bucket: "b"}); err == nil {
		t.Error("expected error for empty endpoint")
	}
	if _, err := NewMinioStore(MinioConfig{Endpoint: "minio:9000"}); err == nil {
		t.Error("expected error for empty bucket")
	}
}

func TestMinioStore_URL(t *testing.T) {
	tests := []struct {
		name string
		cfg  MinioConfig
		key  string
		want string
	}{
		{
			name: "endpoint without ssl",
			cfg:  MinioConfig{Endpoint: "minio:9000", Bucket: "animark-profile-images"},
			key:  "profile-images/u1/abc.png",
			want: "http://minio:9000/animark-profile-images/profile-images/u1/abc.png",
		},
		{
			name: "endpoint with ssl",
			cfg:  MinioConfig{Endpoint: "s3.example.com", Bucket: "img", UseSSL: true},
			key:  "profile-images/u1/abc.png",
			want: "https://s3.example.com/img/profile-images/u1/abc.png",
		},
		{
			name: "public url override",
			cfg:  MinioConfig{Endpoint: "minio:9000", Bucket: "img", PublicURL: "https://cdn.example.com/"},
			key:  "profile-images/u1/a b.png",
			want: "https://cdn.example.com/img/profile-images/u1/a%20b.png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewMinioStore(tt.cfg)
			if err != nil {
				t.Fatalf("NewMinioStore() error = %v", err)
			}
			if got := store.URL(tt.key); got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPublicReadPolicy_ScopedToPrefix(t *testing.T) {
	policy := publicReadPolicy("img")
	if !strings.Contains(policy, "arn:aws:s3:::img/profile-images/*") {
		t.Errorf("policy does not scope to profile images: %s", policy)
	}
	if !strings.Contains(policy, "s3:GetObject") {
		t.Errorf("policy does not grant GetObject: %s", policy)
	}
}

// TestMinioStore_PutAndRemove はTEST_MINIO_ENDPOINTが設定されている場合のみ実行する。
func TestMinioStore_PutAndRemove(t *testing.T) {
	endpoint := os.Getenv("TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("TEST_MINIO_ENDPOINT not set")
	}
	store, err := NewMinioStore(MinioConfig{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("TEST_MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("TEST_MINIO_SECRET_KEY"),
		Bucket:    "animark-test",
	})
	if err != nil {
		t.Fatalf("NewMinioStore() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.EnsureBucket(ctx); err != nil {
		t.Skipf("minio not reachable: %v", err)
	}
	body := "fake-image"
	if err := store.Put(ctx, "profile-images/test/x.png", strings.NewReader(body), int64(len(body)), "image/png"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Remove(ctx, "profile-images/test/x.png"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
}
