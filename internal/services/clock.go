package services

import (
	"errors"
	"time"

	"kantong/internal/core"
	"kantong/internal/storage"
)

// Clock supplies the current time in the configured location. Every "today" in
// the services comes from here so day boundaries agree across components.
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

func (c Clock) now() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return now().In(c.location())
}

func (c Clock) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c Clock) today() core.Date {
	return core.DateOf(c.now())
}

// notFound maps storage.ErrNotFound to a domain NotFound and wraps anything else.
func notFound(err error, what string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return core.NotFound("%s not found", what)
	}
	return err
}
