package statefulcontent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	errMissingField       = errors.New("missing required field")
	errUnknownContentType = errors.New("unknown content type")
)

type rawSysRef struct {
	Sys struct {
		ID string `json:"id"`
	} `json:"sys"`
}

type rawSys struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	LinkType    string     `json:"linkType,omitempty"`
	ContentType *rawSysRef `json:"contentType,omitempty"`
	Locale      string     `json:"locale,omitempty"`
}

type rawEntry struct {
	Sys    rawSys                     `json:"sys"`
	Fields map[string]json.RawMessage `json:"fields"`
}

func (e rawEntry) contentTypeID() string {
	if e.Sys.ContentType == nil {
		return ""
	}
	return e.Sys.ContentType.Sys.ID
}

type rawLink struct {
	Sys rawSys `json:"sys"`
}

type rawCollection struct {
	Total    int        `json:"total"`
	Skip     int        `json:"skip"`
	Limit    int        `json:"limit"`
	Items    []rawEntry `json:"items"`
	Includes struct {
		Entry []rawEntry `json:"Entry"`
		Asset []rawEntry `json:"Asset"`
	} `json:"includes"`
}

// Collection is a decoded page of entries.
type Collection[T any] struct {
	Total int
	Skip  int
	Limit int
	Items []T
}

// DecodeCollection decodes a Contentful entries payload into entities of type
// T, resolving links through the payload's includes up to include levels
// deep. Fields outside the content type schema are ignored; a missing
// required field fails the whole payload with a *DecodeError. Links whose
// target is not included are dropped.
func DecodeCollection[T any](payload []byte, include int) (*Collection[T], error) {
	var raw rawCollection
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, &DecodeError{Err: err}
	}

	d := &decoder{
		include: include,
		entries: make(map[Identifier]rawEntry, len(raw.Items)+len(raw.Includes.Entry)),
		assets:  make(map[Identifier]rawEntry, len(raw.Includes.Asset)),
	}
	for _, e := range raw.Includes.Entry {
		d.entries[Identifier(e.Sys.ID)] = e
	}
	for _, e := range raw.Items {
		d.entries[Identifier(e.Sys.ID)] = e
	}
	for _, a := range raw.Includes.Asset {
		d.assets[Identifier(a.Sys.ID)] = a
	}

	out := &Collection[T]{Total: raw.Total, Skip: raw.Skip, Limit: raw.Limit, Items: make([]T, 0, len(raw.Items))}
	for _, item := range raw.Items {
		v, err := d.decode(item, 0)
		if err != nil {
			return nil, err
		}
		typed, ok := v.(T)
		if !ok {
			return nil, &DecodeError{
				ContentType: item.contentTypeID(),
				EntryID:     Identifier(item.Sys.ID),
				Err:         fmt.Errorf("unexpected entity %T", v),
			}
		}
		out.Items = append(out.Items, typed)
	}
	return out, nil
}

type decoder struct {
	include int
	entries map[Identifier]rawEntry
	assets  map[Identifier]rawEntry
}

func (d *decoder) decode(raw rawEntry, level int) (any, error) {
	ct := raw.contentTypeID()
	schema, ok := SchemaFor(ct)
	if !ok {
		return nil, &DecodeError{ContentType: ct, EntryID: Identifier(raw.Sys.ID), Err: errUnknownContentType}
	}
	f := &fieldReader{d: d, raw: raw, schema: schema, level: level}
	res := NewResource(Identifier(raw.Sys.ID), ct)

	switch ct {
	case ContentTypeCourse:
		c := &Course{Resource: res}
		c.Title = f.str(FieldTitle)
		c.Slug = f.str(FieldSlug)
		c.ShortDescription = f.str(FieldShortDescription)
		c.Description = f.str(FieldDescription)
		c.Duration = f.num(FieldDuration)
		c.SkillLevel = f.str(FieldSkillLevel)
		c.Image = f.asset(FieldImage)
		c.Lessons = linksOf[*Lesson](f, FieldLessons)
		c.Categories = linksOf[*Category](f, FieldCategories)
		return c, f.err
	case ContentTypeCategory:
		c := &Category{Resource: res}
		c.Title = f.str(FieldTitle)
		c.Slug = f.str(FieldSlug)
		return c, f.err
	case ContentTypeLesson:
		l := &Lesson{Resource: res}
		l.Title = f.str(FieldTitle)
		l.Slug = f.str(FieldSlug)
		l.Modules = linksOf[*LessonModule](f, FieldModules)
		return l, f.err
	case ContentTypeLessonCopy:
		m := &LessonModule{Resource: res, Copy: &LessonCopy{
			Title: f.str(FieldTitle),
			Copy:  f.str(FieldCopy),
		}}
		return m, f.err
	case ContentTypeLessonImage:
		m := &LessonModule{Resource: res, Image: &LessonImage{
			Title:   f.str(FieldTitle),
			Caption: f.str(FieldCaption),
			Image:   f.asset(FieldImage),
		}}
		return m, f.err
	case ContentTypeLessonCodeSnippets:
		m := &LessonModule{Resource: res, CodeSnippets: &LessonCodeSnippets{
			Title:       f.str(FieldTitle),
			Curl:        f.str(FieldCurl),
			DotNet:      f.str(FieldDotNet),
			Javascript:  f.str(FieldJavascript),
			Java:        f.str(FieldJava),
			JavaAndroid: f.str(FieldJavaAndroid),
			PHP:         f.str(FieldPHP),
			Python:      f.str(FieldPython),
			Ruby:        f.str(FieldRuby),
			Swift:       f.str(FieldSwift),
		}}
		return m, f.err
	case ContentTypeHomeLayout:
		h := &HomeLayout{Resource: res}
		h.Slug = f.str(FieldSlug)
		h.Modules = linksOf[*LayoutModule](f, FieldContentModules)
		return h, f.err
	case ContentTypeLayoutCopy:
		m := &LayoutCopy{
			Copy:        f.str(FieldCopy),
			Headline:    f.str(FieldHeadline),
			CTATitle:    f.str(FieldCTATitle),
			CTALink:     f.str(FieldCTALink),
			VisualStyle: VisualStyle(f.str(FieldVisualStyle)),
		}
		return &LayoutModule{Resource: res, Copy: m}, f.err
	case ContentTypeLayoutHeroImage:
		m := &LayoutHeroImage{
			Title:           f.str(FieldTitle),
			Headline:        f.str(FieldHeadline),
			BackgroundImage: f.asset(FieldBackgroundImage),
		}
		return &LayoutModule{Resource: res, HeroImage: m}, f.err
	case ContentTypeLayoutHighlightedCourse:
		m := &LayoutHighlightedCourse{Title: f.str(FieldTitle)}
		if v, ok := f.link(FieldCourse); ok {
			m.Course, _ = v.(*Course)
		}
		return &LayoutModule{Resource: res, HighlightedCourse: m}, f.err
	}
	return nil, &DecodeError{ContentType: ct, EntryID: res.ID, Err: errUnknownContentType}
}

// fieldReader decodes the fields of one entry and keeps the first error.
type fieldReader struct {
	d      *decoder
	raw    rawEntry
	schema Schema
	level  int
	err    error
}

func (f *fieldReader) fail(key FieldKey, err error) {
	if f.err == nil {
		f.err = &DecodeError{ContentType: f.schema.ContentTypeID, EntryID: Identifier(f.raw.Sys.ID), Field: key, Err: err}
	}
}

// value returns the raw field and whether it is present and non-null.
func (f *fieldReader) value(key FieldKey) (json.RawMessage, bool) {
	field, known := f.schema.Field(key)
	if !known {
		return nil, false
	}
	v, ok := f.raw.Fields[string(key)]
	if !ok || string(v) == "null" {
		if field.Required {
			f.fail(key, errMissingField)
		}
		return nil, false
	}
	return v, true
}

func (f *fieldReader) str(key FieldKey) string {
	v, ok := f.value(key)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		f.fail(key, err)
	}
	return s
}

func (f *fieldReader) num(key FieldKey) int {
	v, ok := f.value(key)
	if !ok {
		return 0
	}
	var n int
	if err := json.Unmarshal(v, &n); err != nil {
		f.fail(key, err)
	}
	return n
}

func (f *fieldReader) linkID(v json.RawMessage, key FieldKey) (rawSys, bool) {
	var l rawLink
	if err := json.Unmarshal(v, &l); err != nil {
		f.fail(key, err)
		return rawSys{}, false
	}
	return l.Sys, l.Sys.ID != ""
}

// link resolves a single entry link. Unresolvable links report false.
func (f *fieldReader) link(key FieldKey) (any, bool) {
	v, ok := f.value(key)
	if !ok {
		return nil, false
	}
	sys, ok := f.linkID(v, key)
	if !ok {
		return nil, false
	}
	return f.resolve(Identifier(sys.ID), key)
}

func (f *fieldReader) resolve(id Identifier, key FieldKey) (any, bool) {
	if f.level+1 > f.d.include {
		return nil, false
	}
	target, ok := f.d.entries[id]
	if !ok {
		return nil, false
	}
	if _, known := SchemaFor(target.contentTypeID()); !known {
		return nil, false
	}
	v, err := f.d.decode(target, f.level+1)
	if err != nil {
		if f.err == nil {
			f.err = err
		}
		return nil, false
	}
	return v, true
}

func (f *fieldReader) asset(key FieldKey) *Asset {
	v, ok := f.value(key)
	if !ok {
		return nil
	}
	sys, ok := f.linkID(v, key)
	if !ok || f.level+1 > f.d.include {
		return nil
	}
	raw, ok := f.d.assets[Identifier(sys.ID)]
	if !ok {
		return nil
	}
	a := &Asset{ID: Identifier(raw.Sys.ID)}
	if t, ok := raw.Fields["title"]; ok {
		_ = json.Unmarshal(t, &a.Title)
	}
	if file, ok := raw.Fields["file"]; ok {
		var fv struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(file, &fv); err == nil {
			a.URL = fv.URL
			if strings.HasPrefix(a.URL, "//") {
				a.URL = "https:" + a.URL
			}
		}
	}
	return a
}

// linksOf resolves a link array field, keeping only targets of type T.
func linksOf[T any](f *fieldReader, key FieldKey) []T {
	v, ok := f.value(key)
	if !ok {
		return nil
	}
	var links []rawLink
	if err := json.Unmarshal(v, &links); err != nil {
		f.fail(key, err)
		return nil
	}
	out := make([]T, 0, len(links))
	for _, l := range links {
		if l.Sys.ID == "" {
			continue
		}
		resolved, ok := f.resolve(Identifier(l.Sys.ID), key)
		if !ok {
			continue
		}
		if typed, ok := resolved.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}
