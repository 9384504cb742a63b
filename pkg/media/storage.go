package media

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wadesk/wadesk/config"
)

var mimeExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/gif":       ".gif",
	"video/mp4":       ".mp4",
	"video/3gpp":      ".3gp",
	"audio/ogg":       ".ogg",
	"audio/mpeg":      ".mp3",
	"audio/mp4":       ".m4a",
	"application/pdf": ".pdf",
}

// SaveBase64 decodes inline media content to the media directory and
// returns its public relative URL. Images additionally get a thumbnail
// next to the original so the conversation list can render previews
// without pulling full files.
func SaveBase64(data, mimeType, kind string) (string, error) {
	payload := data
	if idx := strings.Index(payload, "base64,"); idx >= 0 {
		payload = payload[idx+len("base64,"):]
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 media: %w", err)
	}

	ext := extensionFor(mimeType, kind)
	name := uuid.NewString() + ext
	path := filepath.Join(config.PathMedia, name)

	if err := os.MkdirAll(config.PathMedia, 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return "", fmt.Errorf("failed to store media file: %w", err)
	}

	logrus.Infof("[MEDIA] Stored %s media %s (%s)", kind, name, humanize.Bytes(uint64(len(raw))))

	if kind == "image" {
		if err := writeThumbnail(path, name); err != nil {
			logrus.Warnf("[MEDIA] Thumbnail generation failed for %s: %v", name, err)
		}
	}

	return "/" + filepath.ToSlash(path), nil
}

func writeThumbnail(srcPath, name string) error {
	img, err := imaging.Open(srcPath)
	if err != nil {
		return err
	}
	thumb := imaging.Fit(img, 320, 320, imaging.Lanczos)
	thumbPath := filepath.Join(config.PathMedia, "thumb_"+strings.TrimSuffix(name, filepath.Ext(name))+".jpg")
	return imaging.Save(thumb, thumbPath, imaging.JPEGQuality(80))
}

// SaveUpload writes an uploaded file's bytes under the uploads directory
// and returns its public relative URL.
func SaveUpload(raw []byte, filename string) (string, error) {
	ext := filepath.Ext(filename)
	name := uuid.NewString() + ext
	path := filepath.Join(config.PathUploads, name)

	if err := os.MkdirAll(config.PathUploads, 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return "", err
	}

	logrus.Infof("[MEDIA] Stored upload %s (%s)", name, humanize.Bytes(uint64(len(raw))))
	return "/" + filepath.ToSlash(path), nil
}

// PublicURL converts a stored relative URL to an absolute one using the
// configured public base URL. Absolute inputs are returned untouched.
func PublicURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" || strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	base := strings.TrimRight(config.AppPublicURL, "/")
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	return base + url
}

// KindFromURL infers a concrete media kind from a file extension when the
// stored type is ambiguous. Returns "" when nothing can be inferred.
func KindFromURL(url string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(strings.Split(url, "?")[0]), ".")) {
	case "jpg", "jpeg", "png", "webp", "gif":
		return "image"
	case "mp4", "3gp", "mov", "webm":
		return "video"
	case "ogg", "mp3", "m4a", "wav", "opus":
		return "audio"
	case "pdf", "doc", "docx", "xls", "xlsx":
		return "document"
	default:
		return ""
	}
}

func extensionFor(mimeType, kind string) string {
	if ext, ok := mimeExtensions[strings.Split(mimeType, ";")[0]]; ok {
		return ext
	}
	switch kind {
	case "image":
		return ".jpg"
	case "video":
		return ".mp4"
	case "audio":
		return ".ogg"
	case "document":
		return ".bin"
	default:
		return ".dat"
	}
}
