// SPDX-License-Identifier: MIT

// Package config reads sqlctl-config.json and resolves the connection
// string from it.
//
// The document is read from storage on every call. When it does not exist a
// default is written first, so the first command run in a project leaves a
// config file behind. A document that exists but does not parse is returned
// as a *ParseError and never overwritten.
package config
