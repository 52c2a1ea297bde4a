package statefulcontent

// Asset is a media file linked from an entry. Assets carry no state.
type Asset struct {
	ID    Identifier `json:"id"`
	Title string     `json:"title,omitempty"`
	URL   string     `json:"url,omitempty"`
}

// Category groups courses.
type Category struct {
	Resource
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// FieldValue implements StatefulResource.
func (c *Category) FieldValue(key FieldKey) (any, bool) {
	switch key {
	case FieldTitle:
		return c.Title, true
	case FieldSlug:
		return c.Slug, true
	}
	return nil, false
}

// Clone returns a copy of c.
func (c *Category) Clone() *Category {
	cp := *c
	return &cp
}

// Course is the root entity of the learning content.
type Course struct {
	Resource
	Title            string      `json:"title"`
	Slug             string      `json:"slug"`
	ShortDescription string      `json:"short_description,omitempty"`
	Description      string      `json:"description,omitempty"`
	Duration         int         `json:"duration,omitempty"`
	SkillLevel       string      `json:"skill_level,omitempty"`
	Image            *Asset      `json:"image,omitempty"`
	Lessons          []*Lesson   `json:"lessons,omitempty"`
	Categories       []*Category `json:"categories,omitempty"`
}

// FieldValue implements StatefulResource.
func (c *Course) FieldValue(key FieldKey) (any, bool) {
	switch key {
	case FieldTitle:
		return c.Title, true
	case FieldSlug:
		return c.Slug, true
	case FieldShortDescription:
		return c.ShortDescription, true
	case FieldDescription:
		return c.Description, true
	case FieldDuration:
		return c.Duration, true
	case FieldSkillLevel:
		return c.SkillLevel, true
	}
	return nil, false
}

// HasLessons reports whether the course links at least one lesson.
func (c *Course) HasLessons() bool { return len(c.Lessons) > 0 }

// LessonIndex returns the position of the lesson with the given slug, or -1.
func (c *Course) LessonIndex(slug string) int {
	for i, l := range c.Lessons {
		if l.Slug == slug {
			return i
		}
	}
	return -1
}

// Clone returns a copy of c whose lesson and category slices may be modified
// without affecting c.
func (c *Course) Clone() *Course {
	cp := *c
	if c.Lessons != nil {
		cp.Lessons = make([]*Lesson, len(c.Lessons))
		for i, l := range c.Lessons {
			cp.Lessons[i] = l.Clone()
		}
	}
	if c.Categories != nil {
		cp.Categories = make([]*Category, len(c.Categories))
		for i, cat := range c.Categories {
			cp.Categories[i] = cat.Clone()
		}
	}
	return &cp
}

// Lesson is an ordered list of lesson modules.
type Lesson struct {
	Resource
	Title   string          `json:"title"`
	Slug    string          `json:"slug"`
	Modules []*LessonModule `json:"modules,omitempty"`
}

// FieldValue implements StatefulResource.
func (l *Lesson) FieldValue(key FieldKey) (any, bool) {
	switch key {
	case FieldTitle:
		return l.Title, true
	case FieldSlug:
		return l.Slug, true
	}
	return nil, false
}

// Clone returns a copy of l with its own module slice.
func (l *Lesson) Clone() *Lesson {
	cp := *l
	if l.Modules != nil {
		cp.Modules = make([]*LessonModule, len(l.Modules))
		for i, m := range l.Modules {
			mc := *m
			cp.Modules[i] = &mc
		}
	}
	return &cp
}

// LessonCopy is a block of markdown copy.
type LessonCopy struct {
	Title string `json:"title,omitempty"`
	Copy  string `json:"copy"`
}

// LessonImage is a captioned image.
type LessonImage struct {
	Title   string `json:"title,omitempty"`
	Caption string `json:"caption,omitempty"`
	Image   *Asset `json:"image,omitempty"`
}

// LessonCodeSnippets holds one snippet per SDK language.
type LessonCodeSnippets struct {
	Title       string `json:"title,omitempty"`
	Curl        string `json:"curl,omitempty"`
	DotNet      string `json:"dot_net,omitempty"`
	Javascript  string `json:"javascript,omitempty"`
	Java        string `json:"java,omitempty"`
	JavaAndroid string `json:"java_android,omitempty"`
	PHP         string `json:"php,omitempty"`
	Python      string `json:"python,omitempty"`
	Ruby        string `json:"ruby,omitempty"`
	Swift       string `json:"swift,omitempty"`
}

// LessonModule is a tagged union over the lesson module content types. The
// variant pointer matching ContentType is set; the others are nil.
type LessonModule struct {
	Resource
	Copy         *LessonCopy         `json:"copy,omitempty"`
	Image        *LessonImage        `json:"image,omitempty"`
	CodeSnippets *LessonCodeSnippets `json:"code_snippets,omitempty"`
}

// Title returns the title of whichever variant is set.
func (m *LessonModule) Title() string {
	switch {
	case m.Copy != nil:
		return m.Copy.Title
	case m.Image != nil:
		return m.Image.Title
	case m.CodeSnippets != nil:
		return m.CodeSnippets.Title
	}
	return ""
}

// FieldValue implements StatefulResource.
func (m *LessonModule) FieldValue(key FieldKey) (any, bool) {
	switch m.ContentType {
	case ContentTypeLessonCopy:
		if m.Copy == nil {
			return nil, false
		}
		switch key {
		case FieldTitle:
			return m.Copy.Title, true
		case FieldCopy:
			return m.Copy.Copy, true
		}
	case ContentTypeLessonImage:
		if m.Image == nil {
			return nil, false
		}
		switch key {
		case FieldTitle:
			return m.Image.Title, true
		case FieldCaption:
			return m.Image.Caption, true
		}
	case ContentTypeLessonCodeSnippets:
		s := m.CodeSnippets
		if s == nil {
			return nil, false
		}
		switch key {
		case FieldTitle:
			return s.Title, true
		case FieldCurl:
			return s.Curl, true
		case FieldDotNet:
			return s.DotNet, true
		case FieldJavascript:
			return s.Javascript, true
		case FieldJava:
			return s.Java, true
		case FieldJavaAndroid:
			return s.JavaAndroid, true
		case FieldPHP:
			return s.PHP, true
		case FieldPython:
			return s.Python, true
		case FieldRuby:
			return s.Ruby, true
		case FieldSwift:
			return s.Swift, true
		}
	}
	return nil, false
}

// HomeLayout is the ordered list of modules shown on the home screen.
type HomeLayout struct {
	Resource
	Slug    string          `json:"slug"`
	Modules []*LayoutModule `json:"modules,omitempty"`
}

// FieldValue implements StatefulResource.
func (h *HomeLayout) FieldValue(key FieldKey) (any, bool) {
	if key == FieldSlug {
		return h.Slug, true
	}
	return nil, false
}

// Clone returns a copy of h with its own module slice.
func (h *HomeLayout) Clone() *HomeLayout {
	cp := *h
	if h.Modules != nil {
		cp.Modules = make([]*LayoutModule, len(h.Modules))
		for i, m := range h.Modules {
			mc := *m
			cp.Modules[i] = &mc
		}
	}
	return &cp
}

// VisualStyle is the presentation style of a layout copy module.
type VisualStyle string

const (
	VisualStyleDefault    VisualStyle = "Default"
	VisualStyleEmphasized VisualStyle = "Emphasized"
)

// LayoutCopy is a copy block with an optional call to action.
type LayoutCopy struct {
	Copy        string      `json:"copy"`
	Headline    string      `json:"headline,omitempty"`
	CTATitle    string      `json:"cta_title,omitempty"`
	CTALink     string      `json:"cta_link,omitempty"`
	VisualStyle VisualStyle `json:"visual_style,omitempty"`
}

// LayoutHeroImage is a full width image with a headline.
type LayoutHeroImage struct {
	Title           string `json:"title"`
	Headline        string `json:"headline"`
	BackgroundImage *Asset `json:"background_image,omitempty"`
}

// LayoutHighlightedCourse promotes a single course.
type LayoutHighlightedCourse struct {
	Title  string  `json:"title"`
	Course *Course `json:"course,omitempty"`
}

// LayoutModule is a tagged union over the home layout module content types.
type LayoutModule struct {
	Resource
	Copy              *LayoutCopy              `json:"copy,omitempty"`
	HeroImage         *LayoutHeroImage         `json:"hero_image,omitempty"`
	HighlightedCourse *LayoutHighlightedCourse `json:"highlighted_course,omitempty"`
}

// FieldValue implements StatefulResource.
func (m *LayoutModule) FieldValue(key FieldKey) (any, bool) {
	switch m.ContentType {
	case ContentTypeLayoutCopy:
		c := m.Copy
		if c == nil {
			return nil, false
		}
		switch key {
		case FieldCopy:
			return c.Copy, true
		case FieldHeadline:
			return c.Headline, true
		case FieldCTATitle:
			return c.CTATitle, true
		case FieldCTALink:
			return c.CTALink, true
		case FieldVisualStyle:
			return string(c.VisualStyle), true
		}
	case ContentTypeLayoutHeroImage:
		if m.HeroImage == nil {
			return nil, false
		}
		switch key {
		case FieldTitle:
			return m.HeroImage.Title, true
		case FieldHeadline:
			return m.HeroImage.Headline, true
		}
	case ContentTypeLayoutHighlightedCourse:
		if m.HighlightedCourse == nil {
			return nil, false
		}
		if key == FieldTitle {
			return m.HighlightedCourse.Title, true
		}
	}
	return nil, false
}
