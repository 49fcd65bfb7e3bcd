package policy

import (
	"strings"

	"github.com/google/uuid"
)

// Field names reported in Completeness.Missing.
const (
	FieldTitle            = "title"
	FieldDescription      = "description"
	FieldImageURL         = "imageUrl"
	FieldPrice            = "price"
	FieldCategoryID       = "categoryId"
	FieldPublishedChapter = "publishedChapter"
	FieldVideoURL         = "videoUrl"
	FieldChapterContent   = "chapterContent"
)

// MinChapterSignals is how many of title, description, video, materials and
// assignments a chapter needs before it may be published.
const MinChapterSignals = 3

type Completeness struct {
	Eligible bool     `json:"eligible"`
	Missing  []string `json:"missing"`
}

type CourseFields struct {
	Title             string
	Description       string
	ImageURL          string
	Price             *float64
	CategoryID        *uuid.UUID
	PublishedChapters int
}

type ChapterFields struct {
	Title       string
	Description string
	VideoURL    string
	Materials   int
	Assignments int
}

// EvaluateCourse requires every catalog field and at least one published chapter.
func EvaluateCourse(f CourseFields) Completeness {
	missing := []string{}
	if blank(f.Title) {
		missing = append(missing, FieldTitle)
	}
	if blank(f.Description) {
		missing = append(missing, FieldDescription)
	}
	if blank(f.ImageURL) {
		missing = append(missing, FieldImageURL)
	}
	if f.Price == nil {
		missing = append(missing, FieldPrice)
	}
	if f.CategoryID == nil || *f.CategoryID == uuid.Nil {
		missing = append(missing, FieldCategoryID)
	}
	if f.PublishedChapters < 1 {
		missing = append(missing, FieldPublishedChapter)
	}
	return Completeness{Eligible: len(missing) == 0, Missing: missing}
}

// EvaluateChapter applies the mandatory title/description/video rule, then the
// 3-of-5 signal rule. The second rule cannot fail once the first passes; both are
// kept until the product decides whether the mandatory fields should only count
// towards the threshold.
func EvaluateChapter(f ChapterFields) Completeness {
	missing := []string{}
	if blank(f.Title) {
		missing = append(missing, FieldTitle)
	}
	if blank(f.Description) {
		missing = append(missing, FieldDescription)
	}
	if blank(f.VideoURL) {
		missing = append(missing, FieldVideoURL)
	}
	if len(missing) > 0 {
		return Completeness{Eligible: false, Missing: missing}
	}

	signals := 0
	for _, ok := range []bool{
		!blank(f.Title),
		!blank(f.Description),
		!blank(f.VideoURL),
		f.Materials > 0,
		f.Assignments > 0,
	} {
		if ok {
			signals++
		}
	}
	if signals < MinChapterSignals {
		return Completeness{Eligible: false, Missing: []string{FieldChapterContent}}
	}
	return Completeness{Eligible: true, Missing: []string{}}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
