// Package persist keeps a device's remembered session in durable storage.
//
// Four keys are used, matching what the browser app kept in localStorage:
//
//	jwt         bearer token
//	email       last signed-in email
//	password    last signed-in password (cleartext, see below)
//	isRemember  presence flag; its value is never read
//
// The password is stored in cleartext so the sign-in form can be prefilled.
// This can be turned off with WithoutPassword.
//
// Tokens have no expiry here. A persisted token is trusted until the bank
// API rejects it.
package persist
