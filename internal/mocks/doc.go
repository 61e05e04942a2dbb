// Package mocks provides shared test doubles for the scheduling service.
//
// MemoryStore implements the task and profile stores plus the unit of work
// entirely in memory, so service and HTTP tests can run without Postgres.
// MockOracleClient and MockJWTService use function fields so each test can
// override exactly the behavior it needs:
//
//	client := mocks.NewMockOracleClientWithReply(`{"traits":["Focused"]}`)
//	jwtSvc := mocks.NewMockJWTServiceForUser(ownerID)
package mocks
