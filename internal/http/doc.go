// Package http exposes the sparkboard JSON API over net/http.
//
// The router exposes the following endpoints:
//   - GET /sparks, POST /sparks, DELETE /sparks?id=: Spark Moment listing, booking and
//     cancellation. Bookings are accepted on Tuesdays and Thursdays only, at most two per
//     date, with a description of 1 to 50 characters. Rejections answer 400 {"error"}.
//   - GET /sparks/calendar?from=&weeks=: remaining capacity per session day.
//   - GET /sparks/events: server-sent change notifications; clients re-fetch on any event.
//   - POST /register, POST /login, POST /logout: account and session management. The
//     session token is returned in the body and in an encoded cookie; the Authorization
//     bearer header takes precedence over the cookie.
//   - GET /me, PATCH /me, GET /users, GET /users/{id}: profiles and the student directory.
//   - GET /badges, POST /badges, PATCH /badges/{id}, DELETE /badges/{id}, POST /assign,
//     POST /revoke: badge gallery and administrator grants.
//   - GET /admin/analytics: administrator dashboard.
//   - GET /healthz: liveness probe.
//
// Error responses always carry {"error": "<message>"} and, for validation failures,
// a "fields" object keyed by JSON field name.
package http
