// SPDX-License-Identifier: MIT

// Package database sequences the database lifecycle verbs create, drop,
// reset and setup.
//
// Every verb resolves the connection string once, checks the server through
// connect.Retry and then issues a single driver call. Destructive verbs ask
// for confirmation first unless the DropPolicy says otherwise; a declined
// confirmation is a normal return, not an error.
package database
