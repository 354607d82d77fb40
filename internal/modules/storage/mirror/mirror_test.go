package mirror

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	appcfg "github.com/ShreyankGopal/Adobe-Hacks/internal/config"
)

func TestNewDisabledReturnsNil(t *testing.T) {
	if svc := New(appcfg.S3Options{Enabled: false}, zap.NewNop()); svc != nil {
		t.Fatal("disabled mirror must be nil")
	}
}

func TestObjectKeyTemplate(t *testing.T) {
	svc := New(appcfg.S3Options{
		Enabled:      true,
		Bucket:       "docs",
		Region:       "us-east-1",
		PathTemplate: "uploads/{Y}/{m}/{filename}",
	}, zap.NewNop())

	key := svc.objectKey("1_report.pdf")
	if !strings.HasPrefix(key, "uploads/") || !strings.HasSuffix(key, "/1_report.pdf") {
		t.Fatalf("unexpected key %q", key)
	}
	if strings.Contains(key, "{") {
		t.Fatalf("placeholders left in key %q", key)
	}
}

func TestPublicURL(t *testing.T) {
	cases := []struct {
		name string
		cfg  appcfg.S3Options
		want string
	}{
		{
			"custom domain",
			appcfg.S3Options{Enabled: true, Bucket: "docs", CustomDomain: "https://cdn.example.com/"},
			"https://cdn.example.com/k/f.pdf",
		},
		{
			"path style endpoint",
			appcfg.S3Options{Enabled: true, Bucket: "docs", Endpoint: "https://minio.local:9000", PathStyleAccess: true},
			"https://minio.local:9000/docs/k/f.pdf",
		},
		{
			"aws default",
			appcfg.S3Options{Enabled: true, Bucket: "docs", Region: "eu-west-1"},
			"https://docs.s3.eu-west-1.amazonaws.com/k/f.pdf",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(tc.cfg, zap.NewNop())
			if got := svc.publicURL("k/f.pdf"); got != tc.want {
				t.Fatalf("publicURL = %q, want %q", got, tc.want)
			}
		})
	}
}
