package types

// ContextKey is the type for values graphconf stores in a context.Context.
type ContextKey string

const (
	// ContextKeyQueryID carries the id of the query a log record belongs to
	ContextKeyQueryID ContextKey = "query_id"

	// ContextKeyRequestSource names the surface a query came from (cli, server)
	ContextKeyRequestSource ContextKey = "request_source"
)
