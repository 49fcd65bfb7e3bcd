package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"anoa.com/learnhub/internal/entity"
	"anoa.com/learnhub/pkg/logger"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const coursesIndex = "courses"

// CourseIndex mirrors published courses into the search engine. Only published
// courses are ever indexed; callers still re-check publish state on read.
type CourseIndex interface {
	IndexCourse(ctx context.Context, course *entity.Course) error
	RemoveCourse(ctx context.Context, id uuid.UUID) error
	SearchCourses(ctx context.Context, query string, categoryID *uuid.UUID, limit int) ([]uuid.UUID, error)
	Enabled() bool
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
	log       *logger.Logger
}

// NewMeiliSearchService returns a disabled index when host is empty.
func NewMeiliSearchService(host, masterKey string, log *logger.Logger) CourseIndex {
	if strings.TrimSpace(host) == "" {
		log.Warn("MEILISEARCH_HOST is not set, course search falls back to the database")
		return disabledIndex{}
	}
	if !strings.HasPrefix(host, "http") {
		host = "http://" + host + ":7700"
	}

	s := &meiliSearchService{
		client:    meilisearch.New(host, meilisearch.WithAPIKey(masterKey)),
		sanitizer: bluemonday.StrictPolicy(),
		log:       log,
	}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	filterable := []any{"category_id", "user_id"}
	if _, err := s.client.Index(coursesIndex).UpdateFilterableAttributes(&filterable); err != nil {
		s.log.Warn("failed to update courses filterable attributes", "error", err)
	}

	sortable := []string{"created_at", "price"}
	if _, err := s.client.Index(coursesIndex).UpdateSortableAttributes(&sortable); err != nil {
		s.log.Warn("failed to update courses sortable attributes", "error", err)
	}
}

func (s *meiliSearchService) Enabled() bool { return true }

type courseDoc struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	CategoryID   string   `json:"category_id"`
	CategoryName string   `json:"category_name"`
	UserID       string   `json:"user_id"`
	AuthorName   string   `json:"author_name"`
	Chapters     []string `json:"chapters"`
	Price        float64  `json:"price"`
	ImageURL     string   `json:"image_url"`
	CreatedAt    int64    `json:"created_at"`
}

func buildCourseDoc(course *entity.Course, clean func(string) string) courseDoc {
	doc := courseDoc{
		ID:          course.ID.String(),
		Title:       clean(course.Title),
		Description: clean(course.Description),
		UserID:      course.UserID.String(),
		ImageURL:    course.ImageURL,
		CreatedAt:   course.CreatedAt.Unix(),
	}
	if course.CategoryID != nil {
		doc.CategoryID = course.CategoryID.String()
	}
	if course.Category != nil {
		doc.CategoryName = course.Category.Name
	}
	if course.User != nil {
		doc.AuthorName = course.User.FullName()
	}
	if course.Price != nil {
		doc.Price = *course.Price
	}
	for _, ch := range course.Chapters {
		if ch.IsPublished {
			doc.Chapters = append(doc.Chapters, clean(ch.Title))
		}
	}
	return doc
}

// cleanText strips markup from rich-text descriptions.
func cleanText(p *bluemonday.Policy, content string) string {
	for _, tag := range []string{"</p>", "<br>", "<br/>", "</div>", "</li>"} {
		content = strings.ReplaceAll(content, tag, " ")
	}
	cleaned := html.UnescapeString(p.Sanitize(content))
	return strings.Join(strings.Fields(cleaned), " ")
}

func (s *meiliSearchService) IndexCourse(ctx context.Context, course *entity.Course) error {
	if !course.IsPublished {
		return s.RemoveCourse(ctx, course.ID)
	}

	doc := buildCourseDoc(course, func(v string) string { return cleanText(s.sanitizer, v) })
	task, err := s.client.Index(coursesIndex).AddDocuments([]courseDoc{doc}, strPtr("id"))
	if err != nil {
		return fmt.Errorf("failed to index course: %w", err)
	}
	s.log.Debug("course indexed", "course_id", course.ID, "task_uid", task.TaskUID)
	return nil
}

func (s *meiliSearchService) RemoveCourse(ctx context.Context, id uuid.UUID) error {
	if _, err := s.client.Index(coursesIndex).DeleteDocument(id.String()); err != nil {
		return fmt.Errorf("failed to remove course from index: %w", err)
	}
	return nil
}

func (s *meiliSearchService) SearchCourses(ctx context.Context, query string, categoryID *uuid.UUID, limit int) ([]uuid.UUID, error) {
	req := &meilisearch.SearchRequest{
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id"},
	}
	if categoryID != nil {
		req.Filter = fmt.Sprintf("category_id = %q", categoryID.String())
	}

	raw, err := s.client.Index(coursesIndex).SearchRaw(query, req)
	if err != nil {
		return nil, fmt.Errorf("course search failed: %w", err)
	}
	return decodeHitIDs(*raw)
}

func decodeHitIDs(raw []byte) ([]uuid.UUID, error) {
	var body struct {
		Hits []struct {
			ID string `json:"id"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(body.Hits))
	for _, hit := range body.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func strPtr(s string) *string {
	return &s
}

type disabledIndex struct{}

func (disabledIndex) IndexCourse(context.Context, *entity.Course) error { return nil }
func (disabledIndex) RemoveCourse(context.Context, uuid.UUID) error     { return nil }
func (disabledIndex) SearchCourses(context.Context, string, *uuid.UUID, int) ([]uuid.UUID, error) {
	return nil, nil
}
func (disabledIndex) Enabled() bool { return false }
