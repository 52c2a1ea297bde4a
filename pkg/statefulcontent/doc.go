// Package statefulcontent fetches courses, lessons and home layouts from a
// Contentful space and resolves, for every entry seen through the Content
// Preview API, whether it differs from the published version served by the
// Content Delivery API.
//
// Every entity embeds a Resource carrying its identifier and ResourceState.
// ResolveState compares the schema scalar fields of a preview entry with its
// delivery counterpart; ResolveLinked folds the resolved states of linked
// children (a lesson's modules, a course's lessons) onto the parent. Both are
// pure: they return resolved copies and never mutate the fetched entities.
//
// State Resolution Flow
//
// A Service fetches in the session's current API mode. When the session is in
// preview mode with editorial features enabled, ResolveCourseState and friends
// issue a second, delivery-mode fetch for the same slug and include depth and
// resolve the preview tree against it. A failed delivery fetch leaves the
// entity at its last known state; the failure is logged, never returned.
//
// Observers learn about session changes through StateMachine, a small generic
// observable value whose observers may stop and re-register themselves from
// inside a transition.
package statefulcontent
