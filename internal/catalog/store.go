package catalog

import "context"

// Repository is the read contract with the events backend.
type Repository interface {
	ListEvents(context context.Context, filters Filters) (*EventPage, error)
	ListOptions(context context.Context, filters Filters) (*Options, error)
	GetEvent(context context.Context, id string) (*EventDetail, error)
}
