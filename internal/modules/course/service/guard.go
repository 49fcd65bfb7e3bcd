package service

import (
	"context"
	"fmt"
	"net/http"

	"anoa.com/learnhub/internal/entity"
	enrollmentService "anoa.com/learnhub/internal/modules/enrollment/service"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/pkg/apperror"
)

// Guard classifies callers against a course. It is shared by the modules that
// manage course content.
type Guard struct {
	classifier   *policy.Classifier
	entitlements enrollmentService.EntitlementResolver
}

func NewGuard(classifier *policy.Classifier, entitlements enrollmentService.EntitlementResolver) *Guard {
	return &Guard{classifier: classifier, entitlements: entitlements}
}

func (g *Guard) Classifier() *policy.Classifier {
	return g.classifier
}

// Inspect returns the caller's capabilities on course. The entitlement is only
// looked up for signed-in callers that cannot bypass publication.
func (g *Guard) Inspect(ctx context.Context, identity *policy.Identity, course *entity.Course) (policy.Capabilities, policy.Entitlement, error) {
	caps := g.classifier.Classify(identity, &course.UserID)
	if identity == nil || caps.CanBypass() {
		return caps, policy.Entitlement{}, nil
	}
	ent, err := g.entitlements.ResolveEntitlement(ctx, identity.UserID, course.ID)
	return caps, ent, err
}

// Authorize lets owners and admins manage course. Callers that could not even
// read the course get NotFound instead of Forbidden.
func (g *Guard) Authorize(ctx context.Context, identity *policy.Identity, course *entity.Course) (policy.Capabilities, error) {
	if identity == nil {
		return policy.Capabilities{}, apperror.ErrUnauthorized
	}

	caps, ent, err := g.Inspect(ctx, identity, course)
	if err != nil {
		return caps, err
	}
	if caps.CanBypass() {
		return caps, nil
	}
	if policy.Gate(policy.CourseResource(course.IsPublished), caps, ent) == policy.AccessDenied {
		return caps, fmt.Errorf("course not found: %w", apperror.ErrNotFound)
	}
	return caps, apperror.New(http.StatusForbidden, "only the course owner or an admin can change this course", apperror.ErrForbidden)
}
