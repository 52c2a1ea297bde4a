package statefulcontent

import "reflect"

// ResolveState computes the state of a preview entry from its own scalar
// fields. A nil delivery entry means the entry was never published and
// resolves to draft. Only fields enumerated by the preview entry's schema are
// compared; links are left to ResolveLinked.
func ResolveState(preview, delivery StatefulResource) ResourceState {
	if absent(delivery) {
		return ResourceStateDraft
	}
	schema, ok := SchemaFor(preview.ContentTypeID())
	if !ok {
		return ResourceStateUpToDate
	}
	for _, key := range schema.ScalarKeys() {
		pv, _ := preview.FieldValue(key)
		dv, _ := delivery.FieldValue(key)
		if pv != dv {
			return ResourceStatePendingChanges
		}
	}
	return ResourceStateUpToDate
}

// ChangedFields lists the schema scalar fields whose preview and delivery
// values differ. It returns nil when delivery is absent.
func ChangedFields(preview, delivery StatefulResource) []FieldKey {
	if absent(delivery) {
		return nil
	}
	schema, ok := SchemaFor(preview.ContentTypeID())
	if !ok {
		return nil
	}
	var changed []FieldKey
	for _, key := range schema.ScalarKeys() {
		pv, _ := preview.FieldValue(key)
		dv, _ := delivery.FieldValue(key)
		if pv != dv {
			changed = append(changed, key)
		}
	}
	return changed
}

func absent(r StatefulResource) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
