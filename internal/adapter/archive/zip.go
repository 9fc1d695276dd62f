// Package archive unpacks WhatsApp chat exports.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lobocrea/wsptranscriber/internal/domain"
)

// ErrNoChatFile is returned when an archive holds no chat transcript.
var ErrNoChatFile = errors.New("no WhatsApp chat file found in export")

// Limit extraction size to 1 GB to prevent decompression bombs (G110)
const maxFileSize = 1 << 30

// Only this much of a .txt member is inspected for chat content.
const sniffSize = 1000

var chatNameRe = regexp.MustCompile(`(?i)(_chat|chat|conversacion|conversation|whatsapp.*)\.txt$`)

var chatContentRes = []*regexp.Regexp{
	regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4},?\s+\d{1,2}:\d{2}\s*[AP]?M?\s*-\s*.+:`),
	regexp.MustCompile(`\[\d{1,2}/\d{1,2}/\d{2,4},?\s+\d{1,2}:\d{2}:\d{2}\s*[AP]?M?`),
	regexp.MustCompile(`\d{1,2}-\d{1,2}-\d{2,4}\s+\d{1,2}:\d{2}\s*-\s*.+:`),
	regexp.MustCompile(`(?i)<Media omitted>`),
	regexp.MustCompile(`(?i)<Multimedia omitido>`),
	regexp.MustCompile(`(?i)Messages and calls are end-to-end encrypted`),
	regexp.MustCompile(`(?i)Los mensajes y las llamadas están cifrados de extremo a extremo`),
}

// ZipExtractor unpacks export archives into a temporary directory.
type ZipExtractor struct {
	// TempRoot is where the per-archive directory is created (default os.TempDir).
	TempRoot string
	log      zerolog.Logger
}

func NewZipExtractor(log zerolog.Logger) *ZipExtractor {
	return &ZipExtractor{log: log.With().Str("component", "archive").Logger()}
}

// Extract unpacks zipPath and returns the transcript and the media files.
// The caller must call Cleanup on the result.
func (e *ZipExtractor) Extract(zipPath string) (*domain.Archive, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("opening zip: %w", err)
	}
	defer r.Close()

	tempDir, err := os.MkdirTemp(e.TempRoot, "wsptranscriber-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}

	arc := &domain.Archive{Dir: tempDir, Media: make(map[string]string)}
	if err := e.extractAll(r, arc); err != nil {
		_ = os.RemoveAll(tempDir)
		return nil, err
	}

	if arc.ChatFileName == "" {
		_ = os.RemoveAll(tempDir)
		return nil, ErrNoChatFile
	}

	e.log.Info().
		Str("chat_file", arc.ChatFileName).
		Int("media", len(arc.Media)).
		Int("files", arc.TotalFiles).
		Msg("archive extracted")
	return arc, nil
}

func (e *ZipExtractor) extractAll(r *zip.ReadCloser, arc *domain.Archive) error {
	var chatPath string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		// Sanitize path to prevent zip slip (G305)
		name := filepath.Clean(f.Name)
		if strings.Contains(name, "..") || filepath.IsAbs(name) {
			e.log.Warn().Str("file", f.Name).Msg("skipping unsafe path")
			continue
		}
		arc.TotalFiles++
		base := filepath.Base(name)

		isChat := false
		if chatPath == "" && strings.HasSuffix(strings.ToLower(base), ".txt") {
			ok, err := isChatFile(f, base)
			if err != nil {
				e.log.Warn().Err(err).Str("file", base).Msg("cannot inspect text file")
			}
			isChat = ok
		}
		if !isChat && !IsMediaFile(base) {
			e.log.Debug().Str("file", base).Msg("skipping file, not chat or media")
			continue
		}

		destPath := filepath.Join(arc.Dir, name)
		if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
			return err
		}
		if err := extractZipFile(f, destPath); err != nil {
			return fmt.Errorf("extracting %s: %w", f.Name, err)
		}

		if isChat {
			chatPath = destPath
			arc.ChatFileName = base
			continue
		}
		arc.Media[base] = destPath
	}

	if chatPath == "" {
		return nil
	}
	data, err := os.ReadFile(chatPath)
	if err != nil {
		return fmt.Errorf("reading chat file: %w", err)
	}
	arc.Transcript = strings.TrimPrefix(string(data), "\ufeff")
	return nil
}

func extractZipFile(f *zip.File, destPath string) error {
	outFile, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer outFile.Close()

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	_, err = io.Copy(outFile, io.LimitReader(rc, maxFileSize))
	return err
}

// isChatFile reports whether a .txt member is a chat transcript, first by
// name and then by looking for WhatsApp lines near its start.
func isChatFile(f *zip.File, base string) (bool, error) {
	if chatNameRe.MatchString(base) {
		return true, nil
	}

	rc, err := f.Open()
	if err != nil {
		return false, err
	}
	defer rc.Close()

	buf, err := io.ReadAll(io.LimitReader(rc, sniffSize))
	if err != nil {
		return false, err
	}
	sample := string(buf)
	for _, re := range chatContentRes {
		if re.MatchString(sample) {
			return true, nil
		}
	}
	return false, nil
}
