package screen

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/tendant/stateful-content/pkg/statefulcontent"
)

// CourseView receives the view models of a course screen. All methods are
// called from the rendering goroutine.
type CourseView interface {
	ShowLoading()
	ShowCourse(course *statefulcontent.Course)
	ShowError(err error)
	ShowNoContent(err *statefulcontent.NoContentError)
	// UpdateLessonState refreshes one lesson row after its state resolved
	UpdateLessonState(index int, lesson *statefulcontent.Lesson)
	// ShowLesson navigates to a lesson of the displayed course
	ShowLesson(course *statefulcontent.Course, lessonSlug string)
}

// CourseScreen drives a CourseView: it fetches a course by slug, resolves
// the state of its lessons and refetches whenever the session changes.
type CourseScreen struct {
	services *statefulcontent.ServiceContext
	view     CourseView
	dispatch Dispatcher
	guard    *statefulcontent.RequestGuard
	logger   *slog.Logger

	mu           sync.Mutex
	session      *statefulcontent.SessionContext
	sessionToken statefulcontent.Token
	serviceToken statefulcontent.Token

	// touched only on the rendering goroutine
	course        *statefulcontent.Course
	visibleLesson string
}

// NewCourseScreen returns a screen for course, which may be nil when the
// screen is opened from a deep link and fetches the course itself.
func NewCourseScreen(services *statefulcontent.ServiceContext, view CourseView, dispatch Dispatcher, course *statefulcontent.Course, logger *slog.Logger) *CourseScreen {
	if logger == nil {
		logger = slog.Default()
	}
	return &CourseScreen{
		services: services,
		view:     view,
		dispatch: dispatch,
		guard:    statefulcontent.NewRequestGuard(),
		logger:   logger,
		course:   course,
	}
}

func courseKey(slug string) string { return "course/" + slug }

func lessonsKey(slug string) string { return "lessons/" + slug }

// Course returns the displayed course. Rendering goroutine only.
func (s *CourseScreen) Course() *statefulcontent.Course { return s.course }

// SetVisibleLesson records the lesson currently shown, so refetches
// triggered by session changes keep it on screen. Rendering goroutine only.
func (s *CourseScreen) SetVisibleLesson(slug string) { s.visibleLesson = slug }

// Appear registers observations and resolves the state of an already known
// course. Rendering goroutine only.
func (s *CourseScreen) Appear(ctx context.Context) {
	s.removeStateObservations()
	s.addStateObservations()

	if s.course == nil {
		s.view.ShowLoading()
		return
	}
	s.view.ShowCourse(s.course)
	s.resolveStateOnCourse(ctx, s.course)
}

// Disappear stops observing and cancels outstanding requests.
func (s *CourseScreen) Disappear() {
	s.removeStateObservations()
	s.guard.CancelAll()
}

// FetchCourseWithSlug loads a course, replacing any request in flight for
// the same slug. A non-empty lessonSlug navigates to that lesson once the
// course arrived. Rendering goroutine only.
func (s *CourseScreen) FetchCourseWithSlug(ctx context.Context, slug, lessonSlug string) {
	// Deep links reach here before Appear, so observations may be missing.
	s.removeStateObservations()
	s.addStateObservations()

	s.view.ShowLoading()

	// Lesson states resolved for the previous fetch must not land on the new one.
	s.guard.Cancel(lessonsKey(slug))
	svc := s.services.Current()
	ticket := s.guard.Begin(ctx, courseKey(slug))
	go func() {
		course, err := svc.FetchCourse(ticket.Context(), slug)
		s.dispatch.Dispatch(func() {
			if !ticket.Current() {
				return
			}
			ticket.Done()
			s.courseFetched(ctx, slug, lessonSlug, course, err)
		})
	}()
}

func (s *CourseScreen) courseFetched(ctx context.Context, slug, lessonSlug string, course *statefulcontent.Course, err error) {
	if err != nil {
		var noContent *statefulcontent.NoContentError
		if errors.As(err, &noContent) {
			if lessonSlug != "" {
				noContent = statefulcontent.NewNoLessonsError(slug, lessonSlug)
			}
			s.view.ShowNoContent(noContent)
			return
		}
		s.logger.Error("failed to fetch course", "slug", slug, "err", err)
		s.view.ShowError(err)
		return
	}

	s.setCourse(ctx, course)

	if lessonSlug == "" {
		lessonSlug = s.visibleLesson
	}
	if lessonSlug == "" {
		return
	}
	if !course.HasLessons() {
		s.view.ShowNoContent(statefulcontent.NewNoLessonsError(slug, lessonSlug))
		return
	}
	if course.LessonIndex(lessonSlug) < 0 {
		// The lesson shown before the refetch no longer exists; stay on the overview.
		s.visibleLesson = ""
		return
	}
	s.visibleLesson = lessonSlug
	s.view.ShowLesson(course, lessonSlug)
}

func (s *CourseScreen) setCourse(ctx context.Context, course *statefulcontent.Course) {
	s.course = course
	s.view.ShowCourse(course)
	s.resolveStateOnLessons(ctx, course)
}

func (s *CourseScreen) resolveStateOnCourse(ctx context.Context, course *statefulcontent.Course) {
	svc := s.services.Current()
	ticket := s.guard.Begin(ctx, courseKey(course.Slug))
	go func() {
		resolved := svc.ResolveCourseState(ticket.Context(), course)
		s.dispatch.Dispatch(func() {
			if !ticket.Current() {
				return
			}
			ticket.Done()
			s.course = resolved
			s.view.ShowCourse(resolved)
		})
	}()
}

func (s *CourseScreen) resolveStateOnLessons(ctx context.Context, course *statefulcontent.Course) {
	svc := s.services.Current()
	if !course.HasLessons() || !svc.Session().Session().ResolvesState() {
		return
	}
	ticket := s.guard.Begin(ctx, lessonsKey(course.Slug))
	go func() {
		resolved := svc.ResolveLessonStates(ticket.Context(), course, func(index int, lesson *statefulcontent.Lesson) {
			s.dispatch.Dispatch(func() {
				if !ticket.Current() || s.course != course {
					return
				}
				s.view.UpdateLessonState(index, lesson)
			})
		})
		// Runs after every lesson update queued above.
		s.dispatch.Dispatch(func() {
			if !ticket.Current() {
				return
			}
			ticket.Done()
			if s.course != course || resolved == course {
				return
			}
			s.course = resolved
			s.view.ShowCourse(resolved)
		})
	}()
}

func (s *CourseScreen) updateWithNewState() {
	if s.course == nil {
		return
	}
	s.FetchCourseWithSlug(context.Background(), s.course.Slug, "")
}

func (s *CourseScreen) addStateObservations() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = s.services.Current().Session()
	s.sessionToken = s.session.Machine().AddTransitionObservation(func(statefulcontent.Transition[statefulcontent.Session]) {
		s.dispatch.Dispatch(s.updateWithNewState)
	})
	s.serviceToken = s.services.Machine().AddTransitionObservation(func(statefulcontent.Transition[*statefulcontent.Service]) {
		// Re-register against the new service's session.
		s.removeStateObservations()
		s.addStateObservations()
		s.dispatch.Dispatch(s.updateWithNewState)
	})
}

func (s *CourseScreen) removeStateObservations() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil && s.sessionToken != "" {
		s.session.Machine().StopObserving(s.sessionToken)
		s.sessionToken = ""
	}
	if s.serviceToken != "" {
		s.services.Machine().StopObserving(s.serviceToken)
		s.serviceToken = ""
	}
}
