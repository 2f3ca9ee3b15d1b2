package github

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/jbsync/internal/core/domain"
)

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ideaIU-2024.2.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte("installer bytes"), 0600))
	return path
}

func testRelease() *domain.Release {
	return &domain.Release{ID: 42, TagName: "idea-ultimate-2024.2"}
}

func TestPublishAsset_UploadsNewAsset(t *testing.T) {
	c, mux := newTestClient(t)
	pub := NewPublisher(c, 3, time.Millisecond)

	mux.HandleFunc("GET /repos/acme/mirror/releases/42/assets",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[]`)
		})
	mux.HandleFunc("POST /repos/acme/mirror/releases/42/assets",
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "ideaIU-2024.2.tar.gz", r.URL.Query().Get("name"))
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":100,"name":"ideaIU-2024.2.tar.gz","size":15}`)
		})

	asset, err := pub.PublishAsset(context.Background(), testRelease(),
		writeArtifact(t), "ideaIU-2024.2.tar.gz")

	require.NoError(t, err)
	assert.Equal(t, int64(100), asset.ID)
	assert.Equal(t, "ideaIU-2024.2.tar.gz", asset.Name)
	assert.Equal(t, int64(15), asset.Size)
}

func TestPublishAsset_ReplacesExistingAsset(t *testing.T) {
	c, mux := newTestClient(t)
	pub := NewPublisher(c, 3, time.Millisecond)

	deleted := false
	mux.HandleFunc("GET /repos/acme/mirror/releases/42/assets",
		func(w http.ResponseWriter, r *http.Request) {
			if deleted {
				fmt.Fprint(w, `[]`)
				return
			}
			fmt.Fprint(w, `[{"id":10,"name":"ideaIU-2024.2.tar.gz","size":3}]`)
		})
	mux.HandleFunc("DELETE /repos/acme/mirror/releases/assets/10",
		func(w http.ResponseWriter, r *http.Request) {
			deleted = true
			w.WriteHeader(http.StatusNoContent)
		})
	mux.HandleFunc("POST /repos/acme/mirror/releases/42/assets",
		func(w http.ResponseWriter, r *http.Request) {
			require.True(t, deleted, "stale asset must be deleted before upload")
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":101,"name":"ideaIU-2024.2.tar.gz","size":15}`)
		})

	asset, err := pub.PublishAsset(context.Background(), testRelease(),
		writeArtifact(t), "ideaIU-2024.2.tar.gz")

	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, int64(101), asset.ID)
}

func TestPublishAsset_RetriesExactlyAttemptTimes(t *testing.T) {
	c, mux := newTestClient(t)
	const attempts = 3
	const delay = 20 * time.Millisecond
	pub := NewPublisher(c, attempts, delay)

	uploads := 0
	mux.HandleFunc("GET /repos/acme/mirror/releases/42/assets",
		func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `[]`) })
	mux.HandleFunc("POST /repos/acme/mirror/releases/42/assets",
		func(w http.ResponseWriter, r *http.Request) {
			uploads++
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"message":"upload broke"}`)
		})

	start := time.Now()
	asset, err := pub.PublishAsset(context.Background(), testRelease(),
		writeArtifact(t), "ideaIU-2024.2.tar.gz")

	assert.Nil(t, asset)
	assert.ErrorIs(t, err, domain.ErrUploadExhausted)
	assert.Equal(t, attempts, uploads)
	// Two delays between three attempts.
	assert.GreaterOrEqual(t, time.Since(start), 2*delay)

	// The final attempt's cause stays in the chain next to the
	// sentinel, so the failure is diagnosable from the error alone.
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, err.Error(), "upload broke")
}

func TestPublishAsset_ConflictDeletesAndRetries(t *testing.T) {
	c, mux := newTestClient(t)
	pub := NewPublisher(c, 3, time.Millisecond)

	uploads := 0
	deletes := 0
	// The racing asset only shows up in listings after the conflict,
	// mimicking another run uploading between our list and upload.
	mux.HandleFunc("GET /repos/acme/mirror/releases/42/assets",
		func(w http.ResponseWriter, r *http.Request) {
			if uploads == 1 {
				fmt.Fprint(w, `[{"id":11,"name":"ideaIU-2024.2.tar.gz","size":3}]`)
				return
			}
			fmt.Fprint(w, `[]`)
		})
	mux.HandleFunc("DELETE /repos/acme/mirror/releases/assets/11",
		func(w http.ResponseWriter, r *http.Request) {
			deletes++
			w.WriteHeader(http.StatusNoContent)
		})
	mux.HandleFunc("POST /repos/acme/mirror/releases/42/assets",
		func(w http.ResponseWriter, r *http.Request) {
			uploads++
			if uploads == 1 {
				w.WriteHeader(http.StatusUnprocessableEntity)
				fmt.Fprint(w, `{"message":"Validation Failed","errors":[{"resource":"ReleaseAsset","code":"already_exists","field":"name"}]}`)
				return
			}
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":102,"name":"ideaIU-2024.2.tar.gz","size":15}`)
		})

	asset, err := pub.PublishAsset(context.Background(), testRelease(),
		writeArtifact(t), "ideaIU-2024.2.tar.gz")

	require.NoError(t, err)
	assert.Equal(t, 2, uploads)
	assert.Equal(t, 1, deletes, "conflict must trigger a delete before the next attempt")
	assert.Equal(t, int64(102), asset.ID)
}

func TestPublishAsset_DeleteFailureDoesNotAbort(t *testing.T) {
	c, mux := newTestClient(t)
	pub := NewPublisher(c, 2, time.Millisecond)

	mux.HandleFunc("GET /repos/acme/mirror/releases/42/assets",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"id":12,"name":"ideaIU-2024.2.tar.gz","size":3}]`)
		})
	mux.HandleFunc("DELETE /repos/acme/mirror/releases/assets/12",
		func(w http.ResponseWriter, r *http.Request) {
			// Another run already removed it.
			notFound(w)
		})
	mux.HandleFunc("POST /repos/acme/mirror/releases/42/assets",
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":103,"name":"ideaIU-2024.2.tar.gz","size":15}`)
		})

	asset, err := pub.PublishAsset(context.Background(), testRelease(),
		writeArtifact(t), "ideaIU-2024.2.tar.gz")

	require.NoError(t, err)
	assert.Equal(t, int64(103), asset.ID)
}

func TestPublishAsset_MissingArtifactFile(t *testing.T) {
	c, mux := newTestClient(t)
	pub := NewPublisher(c, 2, time.Millisecond)

	mux.HandleFunc("GET /repos/acme/mirror/releases/42/assets",
		func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `[]`) })

	asset, err := pub.PublishAsset(context.Background(), testRelease(),
		filepath.Join(t.TempDir(), "nope.tar.gz"), "nope.tar.gz")

	assert.Nil(t, asset)
	assert.ErrorIs(t, err, domain.ErrUploadExhausted)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
