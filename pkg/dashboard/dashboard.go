package dashboard

import (
	core "github.com/goliatone/go-dashgrid/components/dashboard"
)

// Service exposes the underlying components/dashboard.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// Document is a loaded dashboard.
type Document = core.Document

// Panel re-export.
type Panel = core.Panel

// RepeatResult reports what a repeat pass created, reused and removed.
type RepeatResult = core.RepeatResult

// LoadOption configures Load.
type LoadOption = core.LoadOption

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// Load parses, migrates and normalizes a dashboard document.
func Load(data []byte, opts ...LoadOption) (*Document, error) {
	return core.Load(data, opts...)
}
