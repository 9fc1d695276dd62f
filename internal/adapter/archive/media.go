package archive

import (
	"path/filepath"
	"strings"
)

var mimeTypes = map[string]string{
	// Audio
	"opus": "audio/opus",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"m4a":  "audio/m4a",
	"aac":  "audio/aac",
	"ogg":  "audio/ogg",
	"flac": "audio/flac",
	"wma":  "audio/x-ms-wma",
	"amr":  "audio/amr",
	"3gp":  "audio/3gpp",
	"awb":  "audio/amr-wb",

	// Video
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
	"mkv":  "video/x-matroska",
	"webm": "video/webm",
	"mpg":  "video/mpeg",
	"mpeg": "video/mpeg",

	// Images
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"heic": "image/heic",
	"heif": "image/heif",

	// Documents
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"txt":  "text/plain",
	"rtf":  "application/rtf",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

func extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// IsMediaFile reports whether name has a known media or document extension.
func IsMediaFile(name string) bool {
	_, ok := mimeTypes[extension(name)]
	return ok
}

// MimeType returns the MIME type for name, or application/octet-stream.
func MimeType(name string) string {
	if mt, ok := mimeTypes[extension(name)]; ok {
		return mt
	}
	return "application/octet-stream"
}

// IsAudioFile reports whether name is an audio file by its MIME type.
func IsAudioFile(name string) bool {
	return strings.HasPrefix(MimeType(name), "audio/")
}
