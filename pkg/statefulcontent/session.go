package statefulcontent

import "fmt"

// APIMode selects which Contentful API entries are fetched from.
type APIMode string

const (
	// APIModeDelivery serves published content only.
	APIModeDelivery APIMode = "delivery"
	// APIModePreview serves the latest draft of every entry.
	APIModePreview APIMode = "preview"
)

// ParseAPIMode converts a string into an APIMode.
func ParseAPIMode(s string) (APIMode, error) {
	switch APIMode(s) {
	case APIModeDelivery, APIModePreview:
		return APIMode(s), nil
	}
	return "", fmt.Errorf("unknown api mode %q", s)
}

// DefaultLocale is the locale used when none is configured.
const DefaultLocale = "en-US"

// Session is the content mode a service fetches in.
type Session struct {
	APIMode           APIMode `json:"api_mode"`
	Locale            string  `json:"locale"`
	EditorialFeatures bool    `json:"editorial_features"`
}

// DefaultSession fetches published content in the default locale.
func DefaultSession() Session {
	return Session{APIMode: APIModeDelivery, Locale: DefaultLocale}
}

// ResolvesState reports whether entries fetched in this session need a
// second, delivery-mode fetch to resolve their state.
func (s Session) ResolvesState() bool {
	return s.APIMode == APIModePreview && s.EditorialFeatures
}

// SessionContext owns the session state machine of one service. Components
// that read or change the content mode receive it explicitly.
type SessionContext struct {
	machine *StateMachine[Session]
}

// NewSessionContext returns a context holding initial.
func NewSessionContext(initial Session) *SessionContext {
	if initial.Locale == "" {
		initial.Locale = DefaultLocale
	}
	if initial.APIMode == "" {
		initial.APIMode = APIModeDelivery
	}
	return &SessionContext{machine: NewStateMachine(initial)}
}

// Session returns the current session.
func (c *SessionContext) Session() Session { return c.machine.State() }

// Machine exposes the underlying state machine for observation.
func (c *SessionContext) Machine() *StateMachine[Session] { return c.machine }

// Update transitions to s.
func (c *SessionContext) Update(s Session) { c.machine.Transition(s) }

// SetAPIMode switches between preview and delivery.
func (c *SessionContext) SetAPIMode(mode APIMode) {
	s := c.Session()
	s.APIMode = mode
	c.Update(s)
}

// SetLocale changes the locale entries are fetched in.
func (c *SessionContext) SetLocale(locale string) {
	s := c.Session()
	s.Locale = locale
	c.Update(s)
}

// SetEditorialFeatures toggles state resolution in preview mode.
func (c *SessionContext) SetEditorialFeatures(enabled bool) {
	s := c.Session()
	s.EditorialFeatures = enabled
	c.Update(s)
}

// ServiceContext holds the current Service. Replacing it, e.g. after new
// space credentials were entered, is a transition observers can react to by
// re-registering with the new service's session.
type ServiceContext struct {
	machine *StateMachine[*Service]
}

// NewServiceContext returns a context holding svc.
func NewServiceContext(svc *Service) *ServiceContext {
	return &ServiceContext{machine: NewStateMachine(svc)}
}

// Current returns the active service.
func (c *ServiceContext) Current() *Service { return c.machine.State() }

// Replace makes svc the active service.
func (c *ServiceContext) Replace(svc *Service) { c.machine.Transition(svc) }

// Machine exposes the underlying state machine for observation.
func (c *ServiceContext) Machine() *StateMachine[*Service] { return c.machine }
