package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPublicID(t *testing.T) {
	cases := []struct {
		url  string
		id   string
		kind string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712/learnhub/covers/abc.webp", "learnhub/covers/abc", "image"},
		{"https://res.cloudinary.com/demo/image/upload/learnhub/abc.png", "learnhub/abc", "image"},
		{"https://res.cloudinary.com/demo/raw/upload/v9/learnhub/attachments/syllabus.pdf", "learnhub/attachments/syllabus.pdf", "raw"},
		{"https://res.cloudinary.com/demo/video/upload/v1/videos/intro.mp4", "videos/intro", "video"},
		{"https://example.com/no/upload-segment.png", "", ""},
		{"https://res.cloudinary.com/demo/image/upload/", "", ""},
		{"https://res.cloudinary.com/demo/image/upload/v1712/", "", ""},
		{"https://res.cloudinary.com/demo/image/upload//learnhub//abc.png", "learnhub/abc", "image"},
	}

	for _, tc := range cases {
		id, kind := ExtractPublicID(tc.url)
		assert.Equal(t, tc.id, id, tc.url)
		assert.Equal(t, tc.kind, kind, tc.url)
	}
}

func TestVersionSegmentDoesNotEatFolders(t *testing.T) {
	id, _ := ExtractPublicID("https://res.cloudinary.com/demo/image/upload/videos/a.png")
	assert.Equal(t, "videos/a", id)
}

func TestResourceType(t *testing.T) {
	assert.Equal(t, "image", resourceType("Cover.JPG"))
	assert.Equal(t, "video", resourceType("intro.mp4"))
	assert.Equal(t, "raw", resourceType("notes.pdf"))
}

func TestJoinFolderAndSanitize(t *testing.T) {
	assert.Equal(t, "learnhub/covers", joinFolder("learnhub", "/covers/"))
	assert.Equal(t, "covers", joinFolder("", "covers"))
	assert.Equal(t, "learnhub", joinFolder("learnhub", ""))

	assert.Equal(t, "week-1-notes", sanitizeName("Week 1 Notes"))
	assert.Equal(t, "file", sanitizeName("???"))
}
