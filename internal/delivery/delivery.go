// Package delivery wraps the SMS and email transports. Senders never return
// Go errors: every attempt produces a Result, which the notify pipeline
// records verbatim in the delivery log. Missing credentials show up as an
// always-failing Result, logged per attempt.
package delivery

// Result is the outcome of one delivery attempt.
type Result struct {
	Success    bool
	ProviderID string // provider message id, when the provider returned one
	Err        string // error text, when the attempt failed
}

func failure(errText string) Result {
	return Result{Success: false, Err: errText}
}
