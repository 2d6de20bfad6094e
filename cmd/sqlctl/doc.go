// SPDX-License-Identifier: MIT

// Package main provides sqlctl, a command-line tool that creates, drops and
// migrates SQL databases.
//
// # Install
//
//	go install github.com/bcomnes/sqlctl/cmd/sqlctl@latest
//
// # Synopsis
//
//	sqlctl <group> <command> [options]
//
// # Commands
//
//	database create         Create the database unless it exists.
//	database drop [-y] [-f] Drop the database after confirmation.
//	database reset [-y] [-f] Drop, recreate and migrate the database.
//	database setup          Create the database and run pending migrations.
//	migrate add <desc>      Scaffold a migration (-r adds an undo file).
//	migrate run             Apply pending migrations.
//	migrate revert          Revert the latest migration.
//	migrate info            List migrations and their state.
//	migrate build-script    Write embed.go into the migration folder.
//	config schema           Print the JSON schema of sqlctl-config.json.
//
// # Connection string
//
// DATABASE_URL wins when it is set in the environment, in ./.env, or in the
// env file named by "env_path" in sqlctl-config.json. Otherwise
// -D/--database-url is used. --connect-timeout (or SQLCTL_CONNECT_TIMEOUT)
// bounds, in whole seconds, how long unreachable servers are retried.
//
// # Line endings
//
// --newline LF|CR|CRLF normalizes migration files before checksumming, so a
// checkout that rewrites line endings does not look like an edited migration.
//
// # Exit status
//
// 0 on success, including a declined drop confirmation; 1 on any error, which
// is printed as a single "error: ..." line.
package main
