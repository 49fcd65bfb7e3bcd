package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// FileStorage stores course covers, chapter materials and attachments.
type FileStorage interface {
	// Upload stores the reader under folder and returns the public URL.
	Upload(ctx context.Context, r io.Reader, folder, fileName string) (string, error)
	Delete(ctx context.Context, fileURL string) error
}

type cloudinaryStorage struct {
	cld        *cloudinary.Cloudinary
	baseFolder string
}

// NewCloudinaryStorage reads CLOUDINARY_URL from the environment.
// baseFolder prefixes every upload folder.
func NewCloudinaryStorage(baseFolder string) (FileStorage, error) {
	cld, err := cloudinary.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}
	cld.Config.URL.Secure = true

	if cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME"); cloudName != "" {
		cld.Config.Cloud.CloudName = cloudName
	}

	return &cloudinaryStorage{cld: cld, baseFolder: strings.Trim(baseFolder, "/")}, nil
}

func (s *cloudinaryStorage) Upload(ctx context.Context, r io.Reader, folder, fileName string) (string, error) {
	if s == nil || s.cld == nil {
		return "", fmt.Errorf("cloudinary storage is not initialized")
	}

	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	params := uploader.UploadParams{
		Folder:         joinFolder(s.baseFolder, folder),
		PublicID:       fmt.Sprintf("%d-%s", time.Now().UnixNano(), sanitizeName(base)),
		UniqueFilename: api.Bool(true),
		Overwrite:      api.Bool(false),
		ResourceType:   resourceType(fileName),
	}
	if params.ResourceType == "image" {
		params.Format = "webp"
		params.Transformation = "q_auto"
	}

	resp, err := s.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload file to cloudinary: %w", err)
	}
	if resp.SecureURL == "" {
		return "", fmt.Errorf("cloudinary upload succeeded but secure URL is empty")
	}
	return resp.SecureURL, nil
}

func (s *cloudinaryStorage) Delete(ctx context.Context, fileURL string) error {
	if s == nil || s.cld == nil {
		return fmt.Errorf("cloudinary storage is not initialized")
	}

	publicID, kind := ExtractPublicID(fileURL)
	if publicID == "" {
		return fmt.Errorf("could not extract public ID from URL: %s", fileURL)
	}

	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: kind,
		Invalidate:   api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from cloudinary: %w", err)
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("cloudinary destroy api returned result: %s", resp.Result)
	}
	return nil
}

func resourceType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".gif", ".webp":
		return "image"
	case ".mp4", ".mov", ".webm", ".mkv":
		return "video"
	default:
		return "raw"
	}
}

func joinFolder(base, folder string) string {
	folder = strings.Trim(folder, "/")
	switch {
	case base == "":
		return folder
	case folder == "":
		return base
	default:
		return base + "/" + folder
	}
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}

// ExtractPublicID returns the public ID and resource type encoded in a delivery URL.
// https://res.cloudinary.com/demo/image/upload/v123/learnhub/covers/a.webp -> learnhub/covers/a, image
// Raw files keep their extension in the public ID.
func ExtractPublicID(fileURL string) (string, string) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", ""
	}

	var parts []string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	uploadIndex := -1
	for i, p := range parts {
		if p == "upload" {
			uploadIndex = i
			break
		}
	}
	if uploadIndex < 1 || uploadIndex+1 >= len(parts) {
		return "", ""
	}
	kind := parts[uploadIndex-1]

	rest := parts[uploadIndex+1:]
	if len(rest) > 0 && isVersion(rest[0]) {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return "", ""
	}

	id := strings.Join(rest, "/")
	if kind != "raw" {
		id = strings.TrimSuffix(id, filepath.Ext(id))
	}
	return id, kind
}

func isVersion(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for _, r := range seg[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
