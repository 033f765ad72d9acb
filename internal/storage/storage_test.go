package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSaveOpenRemove(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocal(root, "/uploads/")
	require.NoError(t, err)

	obj, err := store.Save("form1", "Report.PDF", strings.NewReader("hello"), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), obj.Size)
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.True(t, strings.HasSuffix(obj.Key, ".pdf"))
	assert.Equal(t, "/uploads/form1/"+obj.Key, obj.URL)

	f, err := store.Open("form1", obj.Key)
	require.NoError(t, err)
	data, _ := io.ReadAll(f)
	f.Close()
	assert.Equal(t, "hello", string(data))

	require.NoError(t, store.RemoveForm("form1"))
	_, err = os.Stat(filepath.Join(root, "form1"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalSaveTooLarge(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocal(root, "")
	require.NoError(t, err)

	_, err = store.Save("form1", "a.txt", strings.NewReader("0123456789"), 4)
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, _ := os.ReadDir(filepath.Join(root, "form1"))
	assert.Empty(t, entries, "partial file must be removed")

	obj, err := store.Save("form1", "a.txt", strings.NewReader("0123"), 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), obj.Size)
}

func TestLocalRejectsTraversal(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "")
	require.NoError(t, err)

	_, err = store.Save("../etc", "x.txt", strings.NewReader("x"), 0)
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = store.Open("form1", "../../secret")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, store.RemoveForm(".."), ErrInvalidKey)
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", DetectContentType("photo.JPG"))
	assert.Equal(t, "application/octet-stream", DetectContentType("blob"))
}

func TestLocalAbsoluteURLPrefix(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "https://forms.example.com/uploads/")
	require.NoError(t, err)

	obj, err := store.Save("form1", "a.pdf", strings.NewReader("x"), 0)
	require.NoError(t, err)
	assert.Equal(t, "https://forms.example.com/uploads/form1/"+obj.Key, obj.URL)
}

func TestLocalRemove(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocal(root, "")
	require.NoError(t, err)

	obj, err := store.Save("form1", "a.txt", strings.NewReader("x"), 0)
	require.NoError(t, err)
	require.NoError(t, store.Remove("form1", obj.Key))
	_, err = os.Stat(filepath.Join(root, "form1", obj.Key))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Remove("form1", obj.Key))
	assert.ErrorIs(t, store.Remove("form1", "../x"), ErrInvalidKey)
}

func TestScriptableTypesAreNotInline(t *testing.T) {
	assert.Equal(t, "application/octet-stream", DetectContentType("logo.svg"))
	assert.False(t, Inline(DetectContentType("logo.svg")))
	assert.False(t, Inline(DetectContentType("page.html")))
	assert.False(t, Inline("application/xml"))
	assert.True(t, Inline(DetectContentType("scan.PDF")))
	assert.True(t, Inline(DetectContentType("photo.jpg")))
}
