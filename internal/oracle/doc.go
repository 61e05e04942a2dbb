// Package oracle wraps an external free-text reasoning service (a language
// model) behind the small set of questions the scheduler asks it: which
// traits describe a user, how a completion changes those traits, where a
// missed task should move, and which period suits a task.
//
// The service is untrusted. Every response is parsed strictly and any
// failure, including a timeout, resolves to a documented default. Callers
// receive a Result tagged with whether the value was parsed or defaulted and
// never an error.
package oracle
