// Package flow holds the page logic of the sign-in and user pages.
//
// Flows know nothing about HTTP or HTML. Each call takes the device ID and
// that device's session.Store, talks to the bank API and durable storage,
// applies session transitions, and returns either a navigation target or
// the state the page should render.
//
// Every bank API call runs under the caller's context. When that context is
// done by the time the call returns, the result is dropped and ctx.Err() is
// returned, so a response for a request nobody is waiting on never changes
// the session.
package flow
