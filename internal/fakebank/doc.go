// Package fakebank is a small in-memory implementation of the bank API.
//
// It exists so the web app can be run and tested without the real backend.
// Users live in memory with bcrypt-hashed passwords, tokens are HS256 JWTs
// whose subject is the user ID, and every response uses the same
// {status, message, body} envelope as the real service.
//
// The two demo accounts are available through DemoUsers:
//
//	tony@stark.com    / password123
//	steve@rogers.com  / password456
package fakebank
