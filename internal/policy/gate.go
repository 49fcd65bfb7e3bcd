package policy

type Access string

const (
	// AccessFull returns the resource with its content.
	AccessFull Access = "full"
	// AccessPlaceholder is shown to purchasers while the resource is unpublished:
	// metadata only, content pending republish.
	AccessPlaceholder Access = "placeholder"
	// AccessLocked is a published chapter the caller has not purchased and that is not free.
	AccessLocked Access = "locked"
	// AccessDenied must be reported exactly like a missing resource.
	AccessDenied Access = "denied"
)

type ResourceKind string

const (
	KindCourse  ResourceKind = "course"
	KindChapter ResourceKind = "chapter"
)

// Resource is the publish state the gate needs. For chapters CoursePublished is the
// parent course flag; for courses it mirrors Published.
type Resource struct {
	Kind            ResourceKind
	Published       bool
	CoursePublished bool
	Free            bool
}

func CourseResource(published bool) Resource {
	return Resource{Kind: KindCourse, Published: published, CoursePublished: published}
}

func ChapterResource(published, coursePublished, free bool) Resource {
	return Resource{Kind: KindChapter, Published: published, CoursePublished: coursePublished, Free: free}
}

func (r Resource) visible() bool {
	return r.Published && r.CoursePublished
}

// Gate decides the response shape for a caller. Bypass is checked first so that
// admins and owners see drafts; an unpublished resource is a placeholder for
// purchasers and denied for everyone else.
func Gate(r Resource, caps Capabilities, ent Entitlement) Access {
	if caps.CanBypass() {
		return AccessFull
	}
	if !r.visible() {
		if ent.HasPurchase {
			return AccessPlaceholder
		}
		return AccessDenied
	}
	if r.Kind == KindCourse || r.Free || ent.HasPurchase {
		return AccessFull
	}
	return AccessLocked
}

// PublishedOnly tells repositories whether to filter child records by publish state.
// It depends on capabilities alone, so it can be computed before any content is fetched.
func PublishedOnly(caps Capabilities) bool {
	return !caps.CanBypass()
}
