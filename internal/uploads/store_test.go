package uploads

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, field, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File[field][0]
}

func TestDiskStoreSavesUnderKindDirectory(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStore(dir, "/uploads/", 1024)

	url, err := store.Save(KindResume, fileHeader(t, "resume", "cv.PDF", []byte("%PDF-1.4")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/resume/resume_"))
	assert.True(t, strings.HasSuffix(url, ".pdf"))

	data, err := os.ReadFile(filepath.Join(dir, KindResume, filepath.Base(url)))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestDiskStoreRejectsDisallowedType(t *testing.T) {
	store := NewDiskStore(t.TempDir(), "/uploads", 1024)

	_, err := store.Save(KindPhoto, fileHeader(t, "photoId", "run.exe", []byte("MZ")))
	var rejected *ErrRejected
	assert.ErrorAs(t, err, &rejected)
}

func TestDiskStoreRejectsOversizedFile(t *testing.T) {
	store := NewDiskStore(t.TempDir(), "/uploads", 4)

	_, err := store.Save(KindPhoto, fileHeader(t, "photoId", "me.png", []byte("0123456789")))
	var rejected *ErrRejected
	assert.ErrorAs(t, err, &rejected)
}

func TestDiskStoreSkipsMissingFile(t *testing.T) {
	store := NewDiskStore(t.TempDir(), "/uploads", 4)

	url, err := store.Save(KindPhoto, nil)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestDiskStoreRemove(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStore(dir, "/uploads", 1024)

	url, err := store.Save(KindPhoto, fileHeader(t, "photoId", "me.png", []byte("png")))
	require.NoError(t, err)
	require.NoError(t, store.Remove(url))

	entries, err := os.ReadDir(filepath.Join(dir, KindPhoto))
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.NoError(t, store.Remove(url), "already removed")
	assert.NoError(t, store.Remove("/elsewhere/photoId/me.png"))
	assert.NoError(t, store.Remove("/uploads/../secrets/key.pem"))
}
