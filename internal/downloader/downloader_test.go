package downloader

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"boorugram/internal/database"
	"boorugram/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, handler http.Handler) (*Service, *database.Database, string) {
	t.Helper()

	db, err := database.New(context.Background(), ":memory:", slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	dir := t.TempDir()

	return New(db, dir, "boorugram-test/1.0", slog.Default()), db, server.URL
}

func waitForDrain(t *testing.T, svc *Service) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !svc.Running() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatal("worker did not drain the queue in time")
}

func testPost(id int64, md5 string, baseURL string) *models.Post {
	return &models.Post{
		ID: id,
		File: models.PostFile{
			Ext: "png",
			MD5: md5,
			URL: baseURL + "/" + md5 + ".png",
		},
	}
}

func TestEnqueueDownloadsAndRemovesRow(t *testing.T) {
	var mu sync.Mutex
	var served []string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		served = append(served, r.URL.Path)
		mu.Unlock()

		_, _ = w.Write([]byte("image-bytes"))
	})

	svc, db, baseURL := newTestService(t, handler)
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, testPost(1, "aaa", baseURL))
	require.NoError(t, err)
	_, err = svc.Enqueue(ctx, testPost(2, "bbb", baseURL))
	require.NoError(t, err)

	waitForDrain(t, svc)

	downloads, err := db.ListDownloads(ctx)
	require.NoError(t, err)
	assert.Empty(t, downloads, "completed rows must be deleted")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, served, 2)
	assert.Equal(t, "/aaa.png", served[0], "queue must process in insertion order")
	assert.Equal(t, "/bbb.png", served[1])

	body, err := os.ReadFile(filepath.Join(svc.dir, "aaa.png"))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(body))

	// No temp files may survive a clean drain.
	entries, err := os.ReadDir(svc.dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFailureRecordsErrorAndKeepsRow(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	svc, db, baseURL := newTestService(t, handler)
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, testPost(1, "aaa", baseURL))
	require.NoError(t, err)

	waitForDrain(t, svc)

	downloads, err := db.ListDownloads(ctx)
	require.NoError(t, err)
	require.Len(t, downloads, 1)
	assert.False(t, downloads[0].Pending())
	assert.Contains(t, downloads[0].Error, "404")

	_, err = os.Stat(filepath.Join(svc.dir, "aaa.png"))
	assert.True(t, os.IsNotExist(err), "failed download must not produce a file")
}

func TestRetryRequeuesFailedDownload(t *testing.T) {
	var mu sync.Mutex
	failing := true

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		fail := failing
		mu.Unlock()

		if fail {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("image-bytes"))
	})

	svc, db, baseURL := newTestService(t, handler)
	ctx := context.Background()

	id, err := svc.Enqueue(ctx, testPost(1, "aaa", baseURL))
	require.NoError(t, err)

	waitForDrain(t, svc)

	downloads, err := db.ListDownloads(ctx)
	require.NoError(t, err)
	require.Len(t, downloads, 1)
	require.False(t, downloads[0].Pending())
	require.Equal(t, id, downloads[0].ID)

	mu.Lock()
	failing = false
	mu.Unlock()

	_, err = svc.Retry(ctx, id)
	require.NoError(t, err)

	waitForDrain(t, svc)

	downloads, err = db.ListDownloads(ctx)
	require.NoError(t, err)
	assert.Empty(t, downloads)

	_, err = os.Stat(filepath.Join(svc.dir, "aaa.png"))
	assert.NoError(t, err)
}

func TestStartWhileRunningIsNoOp(t *testing.T) {
	release := make(chan struct{})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte("image-bytes"))
	})

	svc, _, baseURL := newTestService(t, handler)
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, testPost(1, "aaa", baseURL))
	require.NoError(t, err)

	require.True(t, svc.Running())

	// Extra Start calls while the worker is blocked must not spawn
	// parallel workers; with only one pending row a second worker would
	// race the claim, so the row count after drain is the tell.
	svc.Start()
	svc.Start()

	close(release)
	waitForDrain(t, svc)

	downloads, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, downloads)
}
