package authorization

import (
	"context"
	"errors"
)

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

// Service answers whether an actor's role may perform an action on an
// object. Role assignment is resolved per request; decisions are never
// cached across requests.
type Service interface {
	Authorize(ctx context.Context, actor string, role string, object string, action string) error
}
