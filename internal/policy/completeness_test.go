package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func readyCourse() CourseFields {
	price := 10.00
	category := uuid.New()
	return CourseFields{
		Title:             "X",
		Description:       "Y",
		ImageURL:          "https://cdn.example.com/cover.webp",
		Price:             &price,
		CategoryID:        &category,
		PublishedChapters: 1,
	}
}

func TestEvaluateCourseReady(t *testing.T) {
	got := EvaluateCourse(readyCourse())

	assert.Equal(t, Completeness{Eligible: true, Missing: []string{}}, got)
}

func TestEvaluateCourseFreeCourseIsStillPriced(t *testing.T) {
	f := readyCourse()
	zero := 0.0
	f.Price = &zero

	assert.True(t, EvaluateCourse(f).Eligible)
}

func TestEvaluateCourseRemovingAnyRequirementBlocks(t *testing.T) {
	mutations := map[string]func(*CourseFields){
		FieldTitle:            func(f *CourseFields) { f.Title = "  " },
		FieldDescription:      func(f *CourseFields) { f.Description = "" },
		FieldImageURL:         func(f *CourseFields) { f.ImageURL = "" },
		FieldPrice:            func(f *CourseFields) { f.Price = nil },
		FieldCategoryID:       func(f *CourseFields) { f.CategoryID = nil },
		FieldPublishedChapter: func(f *CourseFields) { f.PublishedChapters = 0 },
	}

	for field, mutate := range mutations {
		t.Run(field, func(t *testing.T) {
			f := readyCourse()
			mutate(&f)

			got := EvaluateCourse(f)
			assert.False(t, got.Eligible)
			assert.Equal(t, []string{field}, got.Missing)
		})
	}
}

func TestEvaluateCourseNilCategoryUUID(t *testing.T) {
	f := readyCourse()
	nilID := uuid.Nil
	f.CategoryID = &nilID

	assert.Equal(t, []string{FieldCategoryID}, EvaluateCourse(f).Missing)
}

func TestEvaluateCourseReportsAllMissingInOrder(t *testing.T) {
	got := EvaluateCourse(CourseFields{})

	assert.False(t, got.Eligible)
	assert.Equal(t, []string{
		FieldTitle, FieldDescription, FieldImageURL, FieldPrice, FieldCategoryID, FieldPublishedChapter,
	}, got.Missing)
}

func TestEvaluateChapterMissingDescription(t *testing.T) {
	for _, counts := range [][2]int{{0, 0}, {3, 0}, {0, 2}, {5, 5}} {
		got := EvaluateChapter(ChapterFields{
			Title:       "Intro",
			Description: "",
			VideoURL:    "https://video.example.com/intro",
			Materials:   counts[0],
			Assignments: counts[1],
		})

		assert.False(t, got.Eligible)
		assert.Equal(t, []string{FieldDescription}, got.Missing)
	}
}

func TestEvaluateChapterMandatoryFieldsAreEnough(t *testing.T) {
	got := EvaluateChapter(ChapterFields{Title: "Intro", Description: "Basics", VideoURL: "vid-1"})

	assert.Equal(t, Completeness{Eligible: true, Missing: []string{}}, got)
}

func TestEvaluateChapterCountsDoNotReplaceMandatoryFields(t *testing.T) {
	got := EvaluateChapter(ChapterFields{Title: "Intro", Materials: 4, Assignments: 2})

	assert.False(t, got.Eligible)
	assert.Equal(t, []string{FieldDescription, FieldVideoURL}, got.Missing)
}
