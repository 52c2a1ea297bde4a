package statefulcontent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Service fetches entities in the session's API mode and resolves their state
// against the delivery API.
type Service struct {
	preview  Fetcher
	delivery Fetcher
	session  *SessionContext
	logger   *slog.Logger
	metrics  Metrics
	include  int
	// maxConcurrency bounds parallel per-lesson delivery fetches
	maxConcurrency int
	resolveOpts    []ResolveOption
}

// Option represents a functional option for configuring the service.
type Option func(*Service)

// WithPreviewFetcher sets the fetcher bound to the Content Preview API.
func WithPreviewFetcher(f Fetcher) Option {
	return func(s *Service) {
		s.preview = f
	}
}

// WithDeliveryFetcher sets the fetcher bound to the Content Delivery API.
func WithDeliveryFetcher(f Fetcher) Option {
	return func(s *Service) {
		s.delivery = f
	}
}

// WithSession sets the session context the service reads its mode from.
func WithSession(session *SessionContext) Option {
	return func(s *Service) {
		s.session = session
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithIncludeDepth sets the link depth of course and layout queries.
func WithIncludeDepth(depth int) Option {
	return func(s *Service) {
		s.include = depth
	}
}

// WithMaxConcurrency bounds the number of parallel delivery fetches.
func WithMaxConcurrency(n int) Option {
	return func(s *Service) {
		s.maxConcurrency = n
	}
}

// WithResolveOptions sets the options every resolution runs with.
func WithResolveOptions(opts ...ResolveOption) Option {
	return func(s *Service) {
		s.resolveOpts = append(s.resolveOpts, opts...)
	}
}

// New creates a new service instance with the given options.
func New(options ...Option) (*Service, error) {
	s := &Service{
		include:        DefaultInclude,
		maxConcurrency: 4,
	}

	for _, option := range options {
		option(s)
	}

	if s.delivery == nil {
		return nil, fmt.Errorf("delivery fetcher is required")
	}
	if s.include < 0 || s.include > MaxInclude {
		return nil, fmt.Errorf("include depth must be between 0 and %d, got %d", MaxInclude, s.include)
	}
	if s.session == nil {
		s.session = NewSessionContext(DefaultSession())
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = NewNoopMetrics()
	}
	if s.maxConcurrency < 1 {
		s.maxConcurrency = 1
	}

	return s, nil
}

// Session returns the session context of the service.
func (s *Service) Session() *SessionContext { return s.session }

// IncludeDepth returns the configured link depth.
func (s *Service) IncludeDepth() int { return s.include }

// Query builds a slug query in the current locale.
func (s *Service) Query(contentType, slug string) Query {
	return Query{
		ContentType: contentType,
		Slug:        slug,
		Include:     s.include,
		Locale:      s.session.Session().Locale,
	}
}

// EntryQuery builds a query for the entry with id in the current locale.
func (s *Service) EntryQuery(contentType string, id Identifier) Query {
	return Query{
		ContentType: contentType,
		ID:          id,
		Include:     s.include,
		Locale:      s.session.Session().Locale,
	}
}

func (s *Service) fetcher(mode APIMode) (Fetcher, error) {
	switch mode {
	case APIModePreview:
		if s.preview == nil {
			return nil, fmt.Errorf("%s: %w", mode, ErrFetcherNotConfigured)
		}
		return s.preview, nil
	default:
		return s.delivery, nil
	}
}

// Fetch runs query against the fetcher of mode and decodes the result.
func Fetch[T any](ctx context.Context, s *Service, mode APIMode, query Query) (*Collection[T], error) {
	f, err := s.fetcher(mode)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("fetching entries", "mode", mode, "query", query.Key(), "include", query.Include)
	payload, err := f.FetchEntries(ctx, query)
	if err != nil {
		s.metrics.FetchCompleted(mode, query.ContentType, err)
		return nil, err
	}
	coll, err := DecodeCollection[T](payload, query.Include)
	s.metrics.FetchCompleted(mode, query.ContentType, err)
	if err != nil {
		return nil, err
	}
	return coll, nil
}

func fetchFirst[T any](ctx context.Context, s *Service, mode APIMode, query Query) (T, bool, error) {
	var zero T
	coll, err := Fetch[T](ctx, s, mode, query)
	if err != nil {
		return zero, false, err
	}
	if len(coll.Items) == 0 {
		return zero, false, nil
	}
	return coll.Items[0], true, nil
}

// FetchCourse fetches the course with slug in the current API mode.
func (s *Service) FetchCourse(ctx context.Context, slug string) (*Course, error) {
	mode := s.session.Session().APIMode
	course, ok, err := fetchFirst[*Course](ctx, s, mode, s.Query(ContentTypeCourse, slug))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewNoCourseError(slug)
	}
	return course, nil
}

// FetchCourses lists every course, optionally filtered by category id.
func (s *Service) FetchCourses(ctx context.Context, categoryID Identifier) ([]*Course, error) {
	q := s.Query(ContentTypeCourse, "")
	q.Include = min(s.include, 1)
	if categoryID != "" {
		q.FieldEquals = map[FieldKey]string{FieldCategories + ".sys.id": string(categoryID)}
	}
	coll, err := Fetch[*Course](ctx, s, s.session.Session().APIMode, q)
	if err != nil {
		return nil, err
	}
	return coll.Items, nil
}

// FetchCategories lists every course category.
func (s *Service) FetchCategories(ctx context.Context) ([]*Category, error) {
	q := s.Query(ContentTypeCategory, "")
	q.Include = 0
	coll, err := Fetch[*Category](ctx, s, s.session.Session().APIMode, q)
	if err != nil {
		return nil, err
	}
	return coll.Items, nil
}

// FetchLesson fetches a course and returns it along with the lesson matching
// lessonSlug. A course without that lesson yields a NoContentError for the
// lesson route.
func (s *Service) FetchLesson(ctx context.Context, courseSlug, lessonSlug string) (*Course, *Lesson, error) {
	course, err := s.FetchCourse(ctx, courseSlug)
	if err != nil {
		if errors.Is(err, ErrNoContent) {
			return nil, nil, NewNoLessonsError(courseSlug, lessonSlug)
		}
		return nil, nil, err
	}
	i := course.LessonIndex(lessonSlug)
	if i < 0 {
		return course, nil, NewNoLessonsError(courseSlug, lessonSlug)
	}
	return course, course.Lessons[i], nil
}

// FetchHomeLayout fetches the layout with slug in the current API mode.
func (s *Service) FetchHomeLayout(ctx context.Context, slug string) (*HomeLayout, error) {
	mode := s.session.Session().APIMode
	layout, ok, err := fetchFirst[*HomeLayout](ctx, s, mode, s.Query(ContentTypeHomeLayout, slug))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &NoContentError{ContentType: ContentTypeHomeLayout, Route: slug}
	}
	return layout, nil
}

// ResolveCourseState resolves course and its lessons against the delivery
// API. When the session does not resolve state, or the delivery fetch fails,
// course is returned unchanged.
func (s *Service) ResolveCourseState(ctx context.Context, course *Course) *Course {
	if !s.session.Session().ResolvesState() {
		return course
	}
	delivery, _, err := fetchFirst[*Course](ctx, s, APIModeDelivery, s.EntryQuery(ContentTypeCourse, course.ID))
	if err != nil {
		s.skip(ContentTypeCourse, course.ID, err)
		return course
	}
	resolved := ResolveCourse(course, delivery, s.resolveOpts...)
	s.recordResolved(ContentTypeCourse, course, delivery, resolved.State)
	return resolved
}

// ResolveLessonState resolves a single lesson and its modules.
func (s *Service) ResolveLessonState(ctx context.Context, lesson *Lesson) *Lesson {
	if !s.session.Session().ResolvesState() {
		return lesson
	}
	delivery, _, err := fetchFirst[*Lesson](ctx, s, APIModeDelivery, s.EntryQuery(ContentTypeLesson, lesson.ID))
	if err != nil {
		s.skip(ContentTypeLesson, lesson.ID, err)
		return lesson
	}
	resolved := ResolveLesson(lesson, delivery, s.resolveOpts...)
	s.recordResolved(ContentTypeLesson, lesson, delivery, resolved.State)
	return resolved
}

// ResolveLessonStates resolves every lesson of course concurrently, one
// delivery fetch per lesson. onLesson, when set, is called as each lesson
// completes with its index in course.Lessons; it may be called from several
// goroutines. The returned course holds the resolved lessons at their
// original positions once all of them completed, and the lesson states
// folded onto the course's own state. Changes to the course's own fields are
// only detected by ResolveCourseState.
func (s *Service) ResolveLessonStates(ctx context.Context, course *Course, onLesson func(index int, lesson *Lesson)) *Course {
	if !s.session.Session().ResolvesState() || !course.HasLessons() {
		return course
	}

	out := course.Clone()
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i, lesson := range course.Lessons {
		i, lesson := i, lesson
		g.Go(func() error {
			resolved := s.ResolveLessonState(gctx, lesson)
			mu.Lock()
			out.Lessons[i] = resolved
			mu.Unlock()
			if onLesson != nil {
				onLesson(i, resolved)
			}
			return nil
		})
	}
	_ = g.Wait()

	states := make([]ResourceState, len(out.Lessons))
	for i, l := range out.Lessons {
		states[i] = l.ResourceState()
	}
	out.State = FoldStates(course.ResourceState(), states...)
	return out
}

// ResolveHomeLayoutState resolves layout and its modules.
func (s *Service) ResolveHomeLayoutState(ctx context.Context, layout *HomeLayout) *HomeLayout {
	if !s.session.Session().ResolvesState() {
		return layout
	}
	delivery, _, err := fetchFirst[*HomeLayout](ctx, s, APIModeDelivery, s.EntryQuery(ContentTypeHomeLayout, layout.ID))
	if err != nil {
		s.skip(ContentTypeHomeLayout, layout.ID, err)
		return layout
	}
	resolved := ResolveHomeLayout(layout, delivery, s.resolveOpts...)
	s.recordResolved(ContentTypeHomeLayout, layout, delivery, resolved.State)
	return resolved
}

func (s *Service) recordResolved(contentType string, preview, delivery StatefulResource, state ResourceState) {
	s.logger.Debug("state resolved",
		"content_type", contentType,
		"id", preview.ResourceID(),
		"state", state,
		"changed_fields", ChangedFields(preview, delivery))
	s.metrics.StateResolved(contentType, state)
}

func (s *Service) skip(contentType string, id Identifier, err error) {
	s.logger.Warn("state resolution skipped", "content_type", contentType, "id", id, "err", err)
	s.metrics.ResolutionSkipped(contentType, err)
}
