package statefulcontent_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "github.com/tendant/stateful-content/pkg/statefulcontent"
	"github.com/tendant/stateful-content/pkg/statefulcontent/fetch/memory"
)

// publishedSpace holds course "intro" with lessons l1 (modules m1, m2) and l2.
func publishedSpace() *memory.Space {
	s := memory.NewSpace()
	s.PutEntry("c1", sc.ContentTypeCourse, map[string]any{
		"title": "Intro", "slug": "intro", "lessons": memory.Links("l1", "l2"),
	})
	s.PutEntry("l1", sc.ContentTypeLesson, map[string]any{
		"title": "Basics", "slug": "basics", "modules": memory.Links("m1", "m2"),
	})
	s.PutEntry("l2", sc.ContentTypeLesson, map[string]any{"title": "Advanced", "slug": "advanced"})
	s.PutEntry("m1", sc.ContentTypeLessonCopy, map[string]any{"title": "Welcome", "copy": "Hello"})
	s.PutEntry("m2", sc.ContentTypeLessonCopy, map[string]any{"title": "Next", "copy": "Steps"})
	s.PutEntry("cat1", sc.ContentTypeCategory, map[string]any{"title": "Basics", "slug": "basics"})
	s.PutEntry("h1", sc.ContentTypeHomeLayout, map[string]any{"slug": "home", "contentModules": memory.Links("hm1")})
	s.PutEntry("hm1", sc.ContentTypeLayoutCopy, map[string]any{"copy": "Welcome"})
	return s
}

type recordingMetrics struct {
	mu       sync.Mutex
	fetches  []sc.APIMode
	resolved []sc.ResourceState
	skipped  []error
}

func (m *recordingMetrics) FetchCompleted(mode sc.APIMode, contentType string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches = append(m.fetches, mode)
}

func (m *recordingMetrics) StateResolved(contentType string, state sc.ResourceState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved = append(m.resolved, state)
}

func (m *recordingMetrics) ResolutionSkipped(contentType string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipped = append(m.skipped, err)
}

func newEditorialService(t *testing.T, preview, delivery *memory.Space, opts ...sc.Option) *sc.Service {
	t.Helper()
	session := sc.NewSessionContext(sc.Session{APIMode: sc.APIModePreview, EditorialFeatures: true})
	svc, err := sc.New(append([]sc.Option{
		sc.WithPreviewFetcher(preview),
		sc.WithDeliveryFetcher(delivery),
		sc.WithSession(session),
	}, opts...)...)
	require.NoError(t, err)
	return svc
}

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []sc.Option
		expectError bool
	}{
		{"no options should fail", nil, true},
		{"delivery fetcher only", []sc.Option{sc.WithDeliveryFetcher(memory.NewSpace())}, false},
		{"include too deep", []sc.Option{sc.WithDeliveryFetcher(memory.NewSpace()), sc.WithIncludeDepth(11)}, true},
		{"negative include", []sc.Option{sc.WithDeliveryFetcher(memory.NewSpace()), sc.WithIncludeDepth(-1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := sc.New(tt.options...)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, sc.DefaultSession(), svc.Session().Session())
		})
	}
}

func TestFetchCourse(t *testing.T) {
	svc, err := sc.New(sc.WithDeliveryFetcher(publishedSpace()))
	require.NoError(t, err)

	course, err := svc.FetchCourse(context.Background(), "intro")
	require.NoError(t, err)
	assert.Equal(t, "Intro", course.Title)
	require.Len(t, course.Lessons, 2)
	assert.Len(t, course.Lessons[0].Modules, 2)
}

func TestFetchCourseNoContent(t *testing.T) {
	svc, err := sc.New(sc.WithDeliveryFetcher(publishedSpace()))
	require.NoError(t, err)

	_, err = svc.FetchCourse(context.Background(), "missing")
	var noContent *sc.NoContentError
	require.ErrorAs(t, err, &noContent)
	assert.Equal(t, "courses/missing", noContent.Route)
	assert.True(t, sc.IsContentError(err))
}

func TestFetchLesson(t *testing.T) {
	svc, err := sc.New(sc.WithDeliveryFetcher(publishedSpace()))
	require.NoError(t, err)

	course, lesson, err := svc.FetchLesson(context.Background(), "intro", "advanced")
	require.NoError(t, err)
	assert.Equal(t, "Intro", course.Title)
	assert.Equal(t, "Advanced", lesson.Title)

	_, _, err = svc.FetchLesson(context.Background(), "intro", "missing")
	var noContent *sc.NoContentError
	require.ErrorAs(t, err, &noContent)
	assert.Equal(t, "courses/intro/lessons/missing", noContent.Route)

	_, _, err = svc.FetchLesson(context.Background(), "missing", "basics")
	require.ErrorAs(t, err, &noContent)
	assert.Equal(t, "courses/missing/lessons/basics", noContent.Route)
}

func TestFetchCoursesAndCategories(t *testing.T) {
	space := publishedSpace()
	space.PutEntry("c2", sc.ContentTypeCourse, map[string]any{
		"title": "Other", "slug": "other", "categories": memory.Links("cat1"),
	})
	svc, err := sc.New(sc.WithDeliveryFetcher(space))
	require.NoError(t, err)

	courses, err := svc.FetchCourses(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, courses, 2)

	courses, err = svc.FetchCourses(context.Background(), "cat1")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "other", courses[0].Slug)
	require.Len(t, courses[0].Categories, 1)

	categories, err := svc.FetchCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Basics", categories[0].Title)
}

func TestFetchInPreviewWithoutPreviewFetcher(t *testing.T) {
	session := sc.NewSessionContext(sc.Session{APIMode: sc.APIModePreview})
	svc, err := sc.New(sc.WithDeliveryFetcher(publishedSpace()), sc.WithSession(session))
	require.NoError(t, err)

	_, err = svc.FetchCourse(context.Background(), "intro")
	assert.ErrorIs(t, err, sc.ErrFetcherNotConfigured)
}

func TestFetchFollowsSessionMode(t *testing.T) {
	delivery := publishedSpace()
	preview := delivery.Clone()
	require.NoError(t, preview.SetField("c1", "title", "Intro (draft)"))

	svc := newEditorialService(t, preview, delivery)

	course, err := svc.FetchCourse(context.Background(), "intro")
	require.NoError(t, err)
	assert.Equal(t, "Intro (draft)", course.Title)

	svc.Session().SetAPIMode(sc.APIModeDelivery)
	course, err = svc.FetchCourse(context.Background(), "intro")
	require.NoError(t, err)
	assert.Equal(t, "Intro", course.Title)
}

func TestResolveCourseState(t *testing.T) {
	delivery := publishedSpace()
	preview := delivery.Clone()
	require.NoError(t, preview.SetField("m1", "copy", "Hello, edited"))
	metrics := &recordingMetrics{}

	svc := newEditorialService(t, preview, delivery, sc.WithMetrics(metrics))

	course, err := svc.FetchCourse(context.Background(), "intro")
	require.NoError(t, err)
	resolved := svc.ResolveCourseState(context.Background(), course)

	assert.Equal(t, sc.ResourceStatePendingChanges, resolved.State)
	assert.Equal(t, sc.ResourceStatePendingChanges, resolved.Lessons[0].State)
	assert.Equal(t, sc.ResourceStatePendingChanges, resolved.Lessons[0].Modules[0].State)
	assert.Equal(t, sc.ResourceStateUpToDate, resolved.Lessons[0].Modules[1].State)
	assert.Equal(t, sc.ResourceStateUpToDate, resolved.Lessons[1].State)
	assert.Equal(t, []sc.APIMode{sc.APIModePreview, sc.APIModeDelivery}, metrics.fetches)
	assert.Equal(t, []sc.ResourceState{sc.ResourceStatePendingChanges}, metrics.resolved)
}

func TestResolveCourseStateUnpublishedCourse(t *testing.T) {
	preview := publishedSpace()
	svc := newEditorialService(t, preview, memory.NewSpace())

	course, err := svc.FetchCourse(context.Background(), "intro")
	require.NoError(t, err)
	resolved := svc.ResolveCourseState(context.Background(), course)

	assert.Equal(t, sc.ResourceStateDraft, resolved.State)
	assert.Equal(t, sc.ResourceStateDraft, resolved.Lessons[1].State)
}

func TestResolveCourseStateDeliveryFailureKeepsState(t *testing.T) {
	delivery := publishedSpace()
	preview := delivery.Clone()
	require.NoError(t, preview.SetField("c1", "title", "Intro (draft)"))
	metrics := &recordingMetrics{}
	svc := newEditorialService(t, preview, delivery, sc.WithMetrics(metrics))

	course, err := svc.FetchCourse(context.Background(), "intro")
	require.NoError(t, err)

	delivery.FailWith(&sc.FetchError{Mode: sc.APIModeDelivery, StatusCode: 503})
	resolved := svc.ResolveCourseState(context.Background(), course)

	assert.Same(t, course, resolved)
	assert.Equal(t, sc.ResourceStateUpToDate, resolved.State)
	require.Len(t, metrics.skipped, 1)
	assert.ErrorIs(t, metrics.skipped[0], sc.ErrFetch)
}

func TestResolveCourseStateOutsideEditorialMode(t *testing.T) {
	delivery := publishedSpace()
	preview := delivery.Clone()
	require.NoError(t, preview.SetField("c1", "title", "Intro (draft)"))
	svc := newEditorialService(t, preview, delivery)
	svc.Session().SetEditorialFeatures(false)

	calls := 0
	delivery.SetHook(func(context.Context, sc.Query) error {
		calls++
		return nil
	})

	course, err := svc.FetchCourse(context.Background(), "intro")
	require.NoError(t, err)
	resolved := svc.ResolveCourseState(context.Background(), course)

	assert.Same(t, course, resolved)
	assert.Zero(t, calls)
}

func TestResolveLessonStates(t *testing.T) {
	delivery := publishedSpace()
	preview := delivery.Clone()
	require.NoError(t, preview.SetField("m2", "copy", "Steps, edited"))
	preview.PutEntry("l3", sc.ContentTypeLesson, map[string]any{"title": "New", "slug": "new"})
	require.NoError(t, preview.SetField("c1", "lessons", memory.Links("l1", "l2", "l3")))

	svc := newEditorialService(t, preview, delivery, sc.WithMaxConcurrency(2))

	course, err := svc.FetchCourse(context.Background(), "intro")
	require.NoError(t, err)

	var mu sync.Mutex
	seen := map[int]sc.ResourceState{}
	resolved := svc.ResolveLessonStates(context.Background(), course, func(i int, l *sc.Lesson) {
		mu.Lock()
		defer mu.Unlock()
		seen[i] = l.State
	})

	want := map[int]sc.ResourceState{
		0: sc.ResourceStatePendingChanges,
		1: sc.ResourceStateUpToDate,
		2: sc.ResourceStateDraft,
	}
	assert.Equal(t, want, seen)
	for i, l := range resolved.Lessons {
		assert.Equal(t, want[i], l.State)
	}
	assert.Equal(t, sc.ResourceStatePendingChanges, resolved.State, "lesson states are folded onto the course")
	assert.Equal(t, sc.ResourceStateUpToDate, course.Lessons[0].State, "input course is not modified")
	assert.Equal(t, sc.ResourceStateUpToDate, course.State)
}

func TestResolveLessonStateDeliveryFailure(t *testing.T) {
	delivery := publishedSpace()
	preview := delivery.Clone()
	svc := newEditorialService(t, preview, delivery)

	_, lesson, err := svc.FetchLesson(context.Background(), "intro", "basics")
	require.NoError(t, err)

	delivery.FailWith(errors.New("connection reset"))
	assert.Same(t, lesson, svc.ResolveLessonState(context.Background(), lesson))
}

func TestResolveHomeLayoutState(t *testing.T) {
	delivery := publishedSpace()
	preview := delivery.Clone()
	preview.PutEntry("hm2", sc.ContentTypeLayoutCopy, map[string]any{"copy": "Fresh"})
	require.NoError(t, preview.SetField("h1", "contentModules", memory.Links("hm1", "hm2")))

	svc := newEditorialService(t, preview, delivery)

	layout, err := svc.FetchHomeLayout(context.Background(), "home")
	require.NoError(t, err)
	resolved := svc.ResolveHomeLayoutState(context.Background(), layout)

	assert.Equal(t, sc.ResourceStateDraft, resolved.State)
	assert.Equal(t, sc.ResourceStateUpToDate, resolved.Modules[0].State)
	assert.Equal(t, sc.ResourceStateDraft, resolved.Modules[1].State)

	_, err = svc.FetchHomeLayout(context.Background(), "missing")
	assert.ErrorIs(t, err, sc.ErrNoContent)
}

func TestFetchDecodeError(t *testing.T) {
	space := memory.NewSpace()
	space.PutEntry("c1", sc.ContentTypeCourse, map[string]any{"slug": "intro"})
	svc, err := sc.New(sc.WithDeliveryFetcher(space))
	require.NoError(t, err)

	_, err = svc.FetchCourse(context.Background(), "intro")
	assert.ErrorIs(t, err, sc.ErrDecode)
	assert.True(t, sc.IsContentError(err))
}

func TestFetchLessonKeepsDecodeError(t *testing.T) {
	delivery := publishedSpace()
	delivery.PutEntry("c9", sc.ContentTypeCourse, map[string]any{"slug": "broken"})
	svc, err := sc.New(sc.WithDeliveryFetcher(delivery))
	require.NoError(t, err)

	_, _, err = svc.FetchLesson(context.Background(), "broken", "basics")
	require.Error(t, err)
	assert.ErrorIs(t, err, sc.ErrDecode)
	assert.NotErrorIs(t, err, sc.ErrNoContent)

	_, _, err = svc.FetchLesson(context.Background(), "missing", "basics")
	var noContent *sc.NoContentError
	require.ErrorAs(t, err, &noContent)
	assert.Equal(t, "courses/missing/lessons/basics", noContent.Route)
}

func TestResolveStateMatchesDeliveryByIdentifier(t *testing.T) {
	t.Run("course with edited slug", func(t *testing.T) {
		delivery := publishedSpace()
		preview := delivery.Clone()
		require.NoError(t, preview.SetField("c1", "slug", "intro-renamed"))
		svc := newEditorialService(t, preview, delivery)

		course, err := svc.FetchCourse(context.Background(), "intro-renamed")
		require.NoError(t, err)

		resolved := svc.ResolveCourseState(context.Background(), course)
		assert.Equal(t, sc.ResourceStatePendingChanges, resolved.State)
		assert.Equal(t, sc.ResourceStateUpToDate, resolved.Lessons[0].State)
	})

	t.Run("lesson with edited slug", func(t *testing.T) {
		delivery := publishedSpace()
		preview := delivery.Clone()
		require.NoError(t, preview.SetField("l2", "slug", "advanced-renamed"))
		svc := newEditorialService(t, preview, delivery)

		_, lesson, err := svc.FetchLesson(context.Background(), "intro", "advanced-renamed")
		require.NoError(t, err)

		resolved := svc.ResolveLessonState(context.Background(), lesson)
		assert.Equal(t, sc.ResourceStatePendingChanges, resolved.State)
	})

	t.Run("other published entry with the same slug", func(t *testing.T) {
		delivery := publishedSpace()
		preview := delivery.Clone()
		preview.PutEntry("c2", sc.ContentTypeCourse, map[string]any{"title": "Intro", "slug": "fresh"})
		delivery.PutEntry("c3", sc.ContentTypeCourse, map[string]any{"title": "Intro", "slug": "fresh"})
		svc := newEditorialService(t, preview, delivery)

		course, err := svc.FetchCourse(context.Background(), "fresh")
		require.NoError(t, err)

		resolved := svc.ResolveCourseState(context.Background(), course)
		assert.Equal(t, sc.ResourceStateDraft, resolved.State)
	})
}

func TestResolveCourseStateWithLinkChanges(t *testing.T) {
	delivery := publishedSpace()
	preview := delivery.Clone()
	require.NoError(t, preview.SetField("c1", "lessons", memory.Links("l2", "l1")))

	svc := newEditorialService(t, preview, delivery)
	course, err := svc.FetchCourse(context.Background(), "intro")
	require.NoError(t, err)
	assert.Equal(t, sc.ResourceStateUpToDate, svc.ResolveCourseState(context.Background(), course).State)

	svc = newEditorialService(t, preview, delivery, sc.WithResolveOptions(sc.WithLinkChanges()))
	assert.Equal(t, sc.ResourceStatePendingChanges, svc.ResolveCourseState(context.Background(), course).State)
}
