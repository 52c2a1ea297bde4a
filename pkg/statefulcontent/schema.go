package statefulcontent

// FieldKey names a field of a Contentful content type.
type FieldKey string

// FieldKind describes how a field is decoded and whether it takes part in
// state comparison.
type FieldKind int

const (
	// FieldScalar fields are compared between preview and delivery.
	FieldScalar FieldKind = iota
	// FieldLink fields reference a single entry or asset.
	FieldLink
	// FieldLinks fields reference an ordered array of entries.
	FieldLinks
)

// Field is one entry of a content type's field enumeration.
type Field struct {
	Key      FieldKey
	Kind     FieldKind
	Required bool
}

// Schema is the field enumeration of a content type.
type Schema struct {
	ContentTypeID string
	Fields        []Field
}

// ScalarKeys returns the keys compared during state resolution, in schema order.
func (s Schema) ScalarKeys() []FieldKey {
	keys := make([]FieldKey, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Kind == FieldScalar {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Field returns the field definition for key.
func (s Schema) Field(key FieldKey) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Content type ids.
const (
	ContentTypeCourse                  = "course"
	ContentTypeCategory                = "category"
	ContentTypeLesson                  = "lesson"
	ContentTypeLessonCopy              = "lessonCopy"
	ContentTypeLessonImage             = "lessonImage"
	ContentTypeLessonCodeSnippets      = "lessonCodeSnippets"
	ContentTypeHomeLayout              = "layout"
	ContentTypeLayoutCopy              = "layoutCopy"
	ContentTypeLayoutHeroImage         = "layoutHeroImage"
	ContentTypeLayoutHighlightedCourse = "layoutHighlightedCourse"
)

// Field keys.
const (
	FieldTitle            FieldKey = "title"
	FieldSlug             FieldKey = "slug"
	FieldShortDescription FieldKey = "shortDescription"
	FieldDescription      FieldKey = "description"
	FieldDuration         FieldKey = "duration"
	FieldSkillLevel       FieldKey = "skillLevel"
	FieldImage            FieldKey = "image"
	FieldLessons          FieldKey = "lessons"
	FieldCategories       FieldKey = "categories"
	FieldModules          FieldKey = "modules"
	FieldContentModules   FieldKey = "contentModules"
	FieldCopy             FieldKey = "copy"
	FieldCaption          FieldKey = "caption"
	FieldHeadline         FieldKey = "headline"
	FieldCTATitle         FieldKey = "ctaTitle"
	FieldCTALink          FieldKey = "ctaLink"
	FieldVisualStyle      FieldKey = "visualStyle"
	FieldBackgroundImage  FieldKey = "backgroundImage"
	FieldCourse           FieldKey = "course"
	FieldCurl             FieldKey = "curl"
	FieldDotNet           FieldKey = "dotNet"
	FieldJavascript       FieldKey = "javascript"
	FieldJava             FieldKey = "java"
	FieldJavaAndroid      FieldKey = "javaAndroid"
	FieldPHP              FieldKey = "php"
	FieldPython           FieldKey = "python"
	FieldRuby             FieldKey = "ruby"
	FieldSwift            FieldKey = "swift"
)

var schemas = map[string]Schema{
	ContentTypeCourse: {ContentTypeCourse, []Field{
		{FieldTitle, FieldScalar, true},
		{FieldSlug, FieldScalar, true},
		{FieldShortDescription, FieldScalar, false},
		{FieldDescription, FieldScalar, false},
		{FieldDuration, FieldScalar, false},
		{FieldSkillLevel, FieldScalar, false},
		{FieldImage, FieldLink, false},
		{FieldLessons, FieldLinks, false},
		{FieldCategories, FieldLinks, false},
	}},
	ContentTypeCategory: {ContentTypeCategory, []Field{
		{FieldTitle, FieldScalar, true},
		{FieldSlug, FieldScalar, true},
	}},
	ContentTypeLesson: {ContentTypeLesson, []Field{
		{FieldTitle, FieldScalar, true},
		{FieldSlug, FieldScalar, true},
		{FieldModules, FieldLinks, false},
	}},
	ContentTypeLessonCopy: {ContentTypeLessonCopy, []Field{
		{FieldTitle, FieldScalar, false},
		{FieldCopy, FieldScalar, true},
	}},
	ContentTypeLessonImage: {ContentTypeLessonImage, []Field{
		{FieldTitle, FieldScalar, false},
		{FieldCaption, FieldScalar, false},
		{FieldImage, FieldLink, false},
	}},
	ContentTypeLessonCodeSnippets: {ContentTypeLessonCodeSnippets, []Field{
		{FieldTitle, FieldScalar, false},
		{FieldCurl, FieldScalar, false},
		{FieldDotNet, FieldScalar, false},
		{FieldJavascript, FieldScalar, false},
		{FieldJava, FieldScalar, false},
		{FieldJavaAndroid, FieldScalar, false},
		{FieldPHP, FieldScalar, false},
		{FieldPython, FieldScalar, false},
		{FieldRuby, FieldScalar, false},
		{FieldSwift, FieldScalar, false},
	}},
	ContentTypeHomeLayout: {ContentTypeHomeLayout, []Field{
		{FieldSlug, FieldScalar, true},
		{FieldContentModules, FieldLinks, false},
	}},
	ContentTypeLayoutCopy: {ContentTypeLayoutCopy, []Field{
		{FieldCopy, FieldScalar, true},
		{FieldHeadline, FieldScalar, false},
		{FieldCTATitle, FieldScalar, false},
		{FieldCTALink, FieldScalar, false},
		{FieldVisualStyle, FieldScalar, false},
	}},
	ContentTypeLayoutHeroImage: {ContentTypeLayoutHeroImage, []Field{
		{FieldTitle, FieldScalar, true},
		{FieldHeadline, FieldScalar, true},
		{FieldBackgroundImage, FieldLink, false},
	}},
	ContentTypeLayoutHighlightedCourse: {ContentTypeLayoutHighlightedCourse, []Field{
		{FieldTitle, FieldScalar, true},
		{FieldCourse, FieldLink, false},
	}},
}

// SchemaFor returns the schema registered for a content type id.
func SchemaFor(contentTypeID string) (Schema, bool) {
	s, ok := schemas[contentTypeID]
	return s, ok
}
