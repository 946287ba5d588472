package metrics

import (
	"context"
)

// Name identifies a counter recorded by the thumbnailer
type Name string

const (
	RequestReceived Name = "thumbnail.request.received"
	Created         Name = "thumbnail.created"
	Failed          Name = "thumbnail.failed"
)

// Recorder counts thumbnail generation events. Implementations must be safe for concurrent use.
type Recorder interface {
	Increment(ctx context.Context, name Name, attrs map[string]string)
	Shutdown(ctx context.Context) error
}
