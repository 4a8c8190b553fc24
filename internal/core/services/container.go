package services

import (
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
)

// Container holds the shared dependencies books are built from, so embedders
// can open several books over one store without repeating the wiring.
type Container struct {
	Store   portsrepo.Store
	Options []BookOption
}

// NewContainer creates a container over store with default book options.
func NewContainer(store portsrepo.Store, opts ...BookOption) *Container {
	return &Container{Store: store, Options: opts}
}

// Book opens the named book. Per-call options override the container defaults.
func (c *Container) Book(name string, opts ...BookOption) (*Book, error) {
	all := make([]BookOption, 0, len(c.Options)+len(opts))
	all = append(all, c.Options...)
	all = append(all, opts...)
	return NewBook(name, c.Store, all...)
}
