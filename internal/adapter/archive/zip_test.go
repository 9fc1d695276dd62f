package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func newTestExtractor(t *testing.T) *ZipExtractor {
	e := NewZipExtractor(zerolog.Nop())
	e.TempRoot = t.TempDir()
	return e
}

func TestExtract_ChatAndMedia(t *testing.T) {
	zipPath := writeZip(t, map[string]string{
		"_chat.txt":                "\ufeff[1/2/24, 10:00:00 a. m.] Ana: hola\n",
		"PTT-20240201-WA0001.opus": "audio-bytes",
		"IMG-20240201-WA0002.jpg":  "image-bytes",
		"notes.bin":                "ignored",
	})

	arc, err := newTestExtractor(t).Extract(zipPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = arc.Cleanup() })

	assert.Equal(t, "_chat.txt", arc.ChatFileName)
	assert.Equal(t, "[1/2/24, 10:00:00 a. m.] Ana: hola\n", arc.Transcript)
	assert.Len(t, arc.Media, 2)
	assert.Contains(t, arc.Media, "PTT-20240201-WA0001.opus")
	assert.Contains(t, arc.Media, "IMG-20240201-WA0002.jpg")
	assert.NotContains(t, arc.Media, "notes.bin")
	assert.Equal(t, 4, arc.TotalFiles)

	data, err := os.ReadFile(arc.Media["PTT-20240201-WA0001.opus"])
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(data))
}

func TestExtract_ChatDetectedByContent(t *testing.T) {
	zipPath := writeZip(t, map[string]string{
		"readme.txt": "nothing to see",
		"export.txt": "12/03/2024, 21:15 - Luis: buenas\n",
	})

	arc, err := newTestExtractor(t).Extract(zipPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = arc.Cleanup() })

	assert.Equal(t, "export.txt", arc.ChatFileName)
	assert.Contains(t, arc.Transcript, "Luis: buenas")
}

func TestExtract_NoChatFile(t *testing.T) {
	zipPath := writeZip(t, map[string]string{
		"photo.jpg":  "x",
		"readme.txt": "plain notes",
	})

	root := t.TempDir()
	e := NewZipExtractor(zerolog.Nop())
	e.TempRoot = root

	_, err := e.Extract(zipPath)
	require.ErrorIs(t, err, ErrNoChatFile)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp dir should be removed on failure")
}

func TestExtract_SkipsUnsafePaths(t *testing.T) {
	zipPath := writeZip(t, map[string]string{
		"chat.txt":      "1/2/24, 10:00 - Ana: hola\n",
		"../escape.jpg": "x",
	})

	arc, err := newTestExtractor(t).Extract(zipPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = arc.Cleanup() })

	assert.NotContains(t, arc.Media, "escape.jpg")
	_, err = os.Stat(filepath.Join(filepath.Dir(arc.Dir), "escape.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestExtract_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o600))

	_, err := newTestExtractor(t).Extract(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoChatFile)
}

func TestCleanup(t *testing.T) {
	zipPath := writeZip(t, map[string]string{"chat.txt": "1/2/24, 10:00 - Ana: hola\n"})

	arc, err := newTestExtractor(t).Extract(zipPath)
	require.NoError(t, err)
	require.NoError(t, arc.Cleanup())

	_, err = os.Stat(arc.Dir)
	assert.True(t, os.IsNotExist(err))
}
