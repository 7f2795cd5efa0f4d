package domain

import "context"

const AnonymousSubmitter = "anonymous"

// Requester is the caller identity supplied by the identity collaborator.
// IsAdmin is trusted as given.
type Requester struct {
	ID      string `json:"id"`
	IsAdmin bool   `json:"isAdmin"`
}

func (r Requester) Anonymous() bool {
	return r.ID == ""
}

func WithRequester(ctx context.Context, r Requester) context.Context {
	return context.WithValue(ctx, RequesterCtxKey, r)
}

// RequesterFromContext returns the anonymous requester when none was attached.
func RequesterFromContext(ctx context.Context) Requester {
	r, ok := ctx.Value(RequesterCtxKey).(Requester)
	if !ok {
		return Requester{}
	}
	return r
}
