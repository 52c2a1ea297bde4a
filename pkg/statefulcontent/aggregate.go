package statefulcontent

// ResolveOption tunes how linked children are folded onto their parent.
type ResolveOption func(*resolveOptions)

type resolveOptions struct {
	linkChanges bool
}

// WithLinkChanges makes removing a published child, or reordering published
// children, a pending change of the parent. Off by default: a parent's state
// reflects its own fields and the states of its children only.
func WithLinkChanges() ResolveOption {
	return func(o *resolveOptions) {
		o.linkChanges = true
	}
}

func newResolveOptions(opts []ResolveOption) resolveOptions {
	var o resolveOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ResolveLinked resolves the preview children of a parent against the
// delivery children and folds them onto own, the parent's own-field state.
//
// Children are matched by identifier, never by position. A preview child
// without a delivery counterpart is passed to resolve with published set to
// false. The returned slice keeps the preview order.
func ResolveLinked[C StatefulResource](own ResourceState, preview, delivery []C, resolve func(p, d C, published bool) C, opts ...ResolveOption) (ResourceState, []C) {
	o := newResolveOptions(opts)
	published := make(map[Identifier]C, len(delivery))
	for _, d := range delivery {
		published[d.ResourceID()] = d
	}

	resolved := make([]C, len(preview))
	states := make([]ResourceState, 0, len(preview)+1)
	for i, p := range preview {
		d, ok := published[p.ResourceID()]
		resolved[i] = resolve(p, d, ok)
		states = append(states, resolved[i].ResourceState())
	}
	if o.linkChanges && LinksReordered(identifiers(preview), identifiers(delivery)) {
		states = append(states, ResourceStatePendingChanges)
	}
	return FoldStates(own, states...), resolved
}

// LinksReordered reports whether a delivery link is missing from preview or
// the links both sides share appear in a different order. Links present only
// in preview do not count: they are drafts.
func LinksReordered(preview, delivery []Identifier) bool {
	inPreview := make(map[Identifier]struct{}, len(preview))
	for _, id := range preview {
		inPreview[id] = struct{}{}
	}
	inDelivery := make(map[Identifier]struct{}, len(delivery))
	for _, id := range delivery {
		if _, ok := inPreview[id]; !ok {
			return true
		}
		inDelivery[id] = struct{}{}
	}

	j := 0
	for _, id := range preview {
		if _, ok := inDelivery[id]; !ok {
			continue
		}
		if j >= len(delivery) || delivery[j] != id {
			return true
		}
		j++
	}
	return false
}

func identifiers[C StatefulResource](items []C) []Identifier {
	ids := make([]Identifier, len(items))
	for i, item := range items {
		ids[i] = item.ResourceID()
	}
	return ids
}

// ResolveLessonModule resolves a single lesson module.
func ResolveLessonModule(preview, delivery *LessonModule, published bool) *LessonModule {
	out := *preview
	if !published {
		out.State = ResourceStateDraft
		return &out
	}
	out.State = ResolveState(preview, delivery)
	return &out
}

// ResolveLayoutModule resolves a single home layout module.
func ResolveLayoutModule(preview, delivery *LayoutModule, published bool) *LayoutModule {
	out := *preview
	if !published {
		out.State = ResourceStateDraft
		return &out
	}
	out.State = ResolveState(preview, delivery)
	return &out
}

// ResolveLesson returns a copy of preview whose modules and own state are
// resolved against delivery. A nil delivery lesson, or one with another
// identifier, makes the lesson and all of its modules draft.
func ResolveLesson(preview, delivery *Lesson, opts ...ResolveOption) *Lesson {
	out := preview.Clone()
	if delivery == nil || delivery.ID != preview.ID {
		_, out.Modules = ResolveLinked(ResourceStateDraft, preview.Modules, nil, ResolveLessonModule)
		out.State = ResourceStateDraft
		return out
	}
	own := ResolveState(preview, delivery)
	out.State, out.Modules = ResolveLinked(own, preview.Modules, delivery.Modules, ResolveLessonModule, opts...)
	return out
}

// ResolveCourse returns a copy of preview with every lesson resolved against
// its delivery counterpart first, then folded onto the course.
func ResolveCourse(preview, delivery *Course, opts ...ResolveOption) *Course {
	out := preview.Clone()
	resolveLesson := func(p, d *Lesson, published bool) *Lesson {
		if !published {
			return ResolveLesson(p, nil)
		}
		return ResolveLesson(p, d, opts...)
	}
	if delivery == nil || delivery.ID != preview.ID {
		_, out.Lessons = ResolveLinked(ResourceStateDraft, preview.Lessons, nil, resolveLesson)
		out.State = ResourceStateDraft
		return out
	}
	own := ResolveState(preview, delivery)
	out.State, out.Lessons = ResolveLinked(own, preview.Lessons, delivery.Lessons, resolveLesson, opts...)
	return out
}

// ResolveHomeLayout returns a copy of preview with its modules resolved and
// folded onto the layout.
func ResolveHomeLayout(preview, delivery *HomeLayout, opts ...ResolveOption) *HomeLayout {
	out := preview.Clone()
	if delivery == nil || delivery.ID != preview.ID {
		_, out.Modules = ResolveLinked(ResourceStateDraft, preview.Modules, nil, ResolveLayoutModule)
		out.State = ResourceStateDraft
		return out
	}
	own := ResolveState(preview, delivery)
	out.State, out.Modules = ResolveLinked(own, preview.Modules, delivery.Modules, ResolveLayoutModule, opts...)
	return out
}
