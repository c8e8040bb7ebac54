package service

import (
	"io"
	"mime"
	"path/filepath"
	"strings"
)

// IncomingFile is one uploaded attachment as handed over by the transport.
type IncomingFile struct {
	Name        string
	ContentType string
	Size        int64
	Spoiler     bool
	Open        func() (io.ReadCloser, error)
}

var (
	imageExtensions = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
		".bmp": true, ".svg": true, ".avif": true, ".ico": true,
	}
	videoExtensions = map[string]bool{
		".mp4": true, ".webm": true, ".mov": true, ".mkv": true, ".avi": true, ".ogv": true,
	}
)

// classifyFile reports whether a file is an image or a video, looking at the
// declared content type first and the extension second.
func classifyFile(name, contentType string) (isImage, isVideo bool) {
	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return true, false
	case strings.HasPrefix(mediaType, "video/"):
		return false, true
	}

	ext := strings.ToLower(filepath.Ext(name))
	if imageExtensions[ext] {
		return true, false
	}
	if videoExtensions[ext] {
		return false, true
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		return strings.HasPrefix(byExt, "image/"), strings.HasPrefix(byExt, "video/")
	}
	return false, false
}

// contentTypeOf returns the content type to store a file under.
func contentTypeOf(f IncomingFile) string {
	if f.ContentType != "" {
		return f.ContentType
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name))); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}
