package domain

type ctxKey string

const (
	RequesterCtxKey ctxKey = "bm-requester"
)

const (
	EventPinSubmitted = "pin.submitted"
	EventPinApproved  = "pin.approved"
	EventPinRejected  = "pin.rejected"
)

const (
	ChannelModeration = "biomap:moderation"
	ChannelPublic     = "biomap:public"
)

// Actions evaluated by the authorization policy.
const (
	ActionApprove     = "pin.approve"
	ActionReject      = "pin.reject"
	ActionListPending = "pin.listPending"
	ActionGet         = "pin.get"
)

func EventChannel(event string) string {
	switch event {
	case EventPinSubmitted:
		return ChannelModeration
	case EventPinApproved:
		return ChannelPublic
	case EventPinRejected:
		return ChannelModeration
	default:
		return ""
	}
}
