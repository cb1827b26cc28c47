package memo

import (
	"github.com/google/uuid"
	"github.com/tailored-agentic-units/memorable/observability"
)

// IDFunc produces a fresh identity for a record pushed without one.
type IDFunc func() (string, error)

// Option configures a Database at Open.
type Option func(*options)

type options struct {
	indent   string
	newID    IDFunc
	observer observability.Observer
}

// WithIndent sets the indentation used when writing the file.
func WithIndent(indent string) Option {
	return func(o *options) { o.indent = indent }
}

// WithIDFunc overrides the UUIDv4 identity generator.
func WithIDFunc(fn IDFunc) Option {
	return func(o *options) { o.newID = fn }
}

// WithObserver sets the observer that receives database events. The default
// discards them.
func WithObserver(obs observability.Observer) Option {
	return func(o *options) { o.observer = obs }
}

func newOptions(opts []Option) options {
	o := options{
		indent:   defaultIndent,
		newID:    newUUID,
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.observer == nil {
		o.observer = observability.NoOpObserver{}
	}
	if o.newID == nil {
		o.newID = newUUID
	}
	return o
}

func newUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
