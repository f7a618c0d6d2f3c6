package middlewares

const (
	// CtxRequestID is where the request-id middleware stashes the id.
	CtxRequestID = "request_id"
)
