package testutil

import (
	"net/http"

	id "steward/pkg/domain"
	"steward/pkg/requestcontext"
)

// WithActor adds an authenticated actor to the request context, as the auth
// middleware would.
func WithActor(req *http.Request, actor id.Actor) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}
