package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"research-verifier/config"
	"research-verifier/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportKey(t *testing.T) {
	assert.Equal(t, "reports/42/abc.json", ReportKey(42, "abc"))
}

func TestReportArchiveStore(t *testing.T) {
	var mu sync.Mutex
	var gotMethod, gotPath, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		mu.Lock()
		gotMethod, gotPath, gotType = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	archive, err := NewReportArchive(context.Background(), &config.Config{
		ReportS3URL:    srv.URL,
		ReportS3Region: "us-east-1",
		ReportS3Key:    "key",
		ReportS3Secret: "secret",
		ReportS3Bucket: "reports-bucket",
	})
	require.NoError(t, err)

	link, err := archive.Store(context.Background(), &models.MessageVerification{ID: 3, MessageID: 7})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.True(t, strings.HasPrefix(gotPath, "/reports-bucket/reports/7/"), gotPath)
	assert.True(t, strings.HasSuffix(gotPath, ".json"), gotPath)
	assert.Equal(t, "application/json", gotType)
	assert.True(t, strings.HasPrefix(link, srv.URL+"/reports-bucket/reports/7/"), link)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/json", contentTypeFor("a/b.json"))
	assert.Equal(t, "application/gzip", contentTypeFor("backup.sql.gz"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("x"))
}
