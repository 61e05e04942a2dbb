// Package testdb connects integration tests to a real Postgres database.
//
// Tests using it are built with the integration tag and skip themselves
// when no database URL is configured, except on CI where a missing
// database is a failure. The schema is brought up to date with the
// embedded migrations once per test binary, and each test works inside a
// transaction that is rolled back when it finishes.
package testdb
