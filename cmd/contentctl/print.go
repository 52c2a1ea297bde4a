package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tendant/stateful-content/pkg/statefulcontent"
)

func output(cmd *cobra.Command, v any, tree func(p *printer)) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tree(&printer{w: cmd.OutOrStdout()})
	return nil
}

// printer writes an indented state tree.
type printer struct {
	w     io.Writer
	depth int
}

func (p *printer) line(r statefulcontent.StatefulResource, label string) {
	fmt.Fprintf(p.w, "%s%s %s %q [%s]\n", strings.Repeat("  ", p.depth), r.ContentTypeID(), r.ResourceID(), label, r.ResourceState())
}

func (p *printer) nested(fn func()) {
	p.depth++
	fn()
	p.depth--
}

func (p *printer) course(c *statefulcontent.Course, lessons bool) {
	p.line(c, c.Title)
	if !lessons {
		return
	}
	p.nested(func() {
		for _, l := range c.Lessons {
			p.lesson(l)
		}
	})
}

func (p *printer) lesson(l *statefulcontent.Lesson) {
	p.line(l, l.Title)
	p.nested(func() {
		for _, m := range l.Modules {
			p.line(m, m.Title())
		}
	})
}

func (p *printer) layout(h *statefulcontent.HomeLayout) {
	p.line(h, h.Slug)
	p.nested(func() {
		for _, m := range h.Modules {
			p.line(m, layoutModuleLabel(m))
		}
	})
}

func layoutModuleLabel(m *statefulcontent.LayoutModule) string {
	switch {
	case m.Copy != nil:
		return m.Copy.Headline
	case m.HeroImage != nil:
		return m.HeroImage.Title
	case m.HighlightedCourse != nil:
		return m.HighlightedCourse.Title
	}
	return ""
}
