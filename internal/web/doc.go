// Package web is the server-rendered front end of the bank demo.
//
// # Routes
//
//	GET  /                   home page
//	GET  /sign-in            sign-in form, or redirect when remembered
//	POST /sign-in            submit credentials
//	GET  /user               profile page, reconciles the session first
//	POST /user/edit          open the name editor
//	POST /user/edit/cancel   close the name editor
//	POST /user/profile       save new names
//	POST /logout, GET /logout
//	GET  /healthz            liveness
//	GET  /static/            stylesheet
//
// # Devices
//
// Each browser gets a random UUID in a cookie signed with gorilla/securecookie.
// The ID selects the browser's session.Store from the registry and its rows in
// durable storage. A missing or tampered cookie starts a new device.
//
// # CSRF Protection
//
// Form posts use a double-submit token: a signed cookie holds random bytes
// and every form carries the same bytes in a hidden csrf_token field.
// Logout is never blocked by a bad token.
//
// All page logic lives in package flow. Handlers only read form values,
// call a flow, and redirect or render.
package web
