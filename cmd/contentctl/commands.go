package main

import (
	"github.com/spf13/cobra"

	"github.com/tendant/stateful-content/pkg/statefulcontent"
)

// NewCourseCommand creates the course command
func NewCourseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "course <slug>",
		Short: "Print a course with its lessons and modules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newServiceFromFlags(cmd)
			if err != nil {
				return err
			}
			course, err := svc.FetchCourse(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			course = svc.ResolveCourseState(cmd.Context(), course)
			return output(cmd, course, func(p *printer) { p.course(course, true) })
		},
	}
}

// NewCoursesCommand creates the courses command
func NewCoursesCommand() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newServiceFromFlags(cmd)
			if err != nil {
				return err
			}
			courses, err := svc.FetchCourses(cmd.Context(), statefulcontent.Identifier(category))
			if err != nil {
				return err
			}
			return output(cmd, courses, func(p *printer) {
				for _, c := range courses {
					p.course(c, false)
				}
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only list courses in this category id")

	return cmd
}

// NewLessonCommand creates the lesson command
func NewLessonCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lesson <course-slug> <lesson-slug>",
		Short: "Print a single lesson of a course",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newServiceFromFlags(cmd)
			if err != nil {
				return err
			}
			_, lesson, err := svc.FetchLesson(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			lesson = svc.ResolveLessonState(cmd.Context(), lesson)
			return output(cmd, lesson, func(p *printer) { p.lesson(lesson) })
		},
	}
}

// NewLayoutCommand creates the layout command
func NewLayoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "layout <slug>",
		Short: "Print a home layout with its modules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newServiceFromFlags(cmd)
			if err != nil {
				return err
			}
			layout, err := svc.FetchHomeLayout(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			layout = svc.ResolveHomeLayoutState(cmd.Context(), layout)
			return output(cmd, layout, func(p *printer) { p.layout(layout) })
		},
	}
}
