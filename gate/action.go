package gate

import "github.com/wanderkit/wanderkit/core"

type actionKind int

const (
	actionContinue actionKind = iota
	actionRedirect
	actionReject
)

// Action is the outcome of a pipeline stage: keep going, redirect the
// client, or stop with a rendered response.
type Action struct {
	kind actionKind
	url  string
	code int
	resp core.Response
}

// Continue forwards the request to the next stage.
func Continue() Action {
	return Action{kind: actionContinue}
}

// Redirect stops the pipeline and redirects the client.
func Redirect(url string, code int) Action {
	return Action{kind: actionRedirect, url: url, code: code}
}

// Reject stops the pipeline and renders the given response.
func Reject(resp core.Response) Action {
	return Action{kind: actionReject, resp: resp}
}
