// Package service contains the application use cases for tasks and user
// profiles.
//
// TaskService coordinates the scheduling controller, the task and profile
// stores and a UnitOfWork. Writes for one owner are serialized twice: by an
// in-process mutex, and inside the transaction by the store's LockOwner.
// The oracle is consulted before the transaction opens; the chosen window
// is re-checked against commitments read under the lock and moved if
// another writer took it.
//
// ProfileService runs onboarding: it extracts traits from the user's
// answers and derives their productive period from the catalogue question
// flagged for it.
//
// Sentinel errors (ErrTaskNotFound, ErrNotOwned, ErrNoAnswers) and the
// domain's validation and transition errors are returned unwrapped so the
// API layer can map them to status codes. Anything else is wrapped in a
// TaskServiceError or ProfileServiceError.
package service
