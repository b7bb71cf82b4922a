// Package http exposes the referee roster over a JSON API.
//
// Public endpoints:
//   - POST /api/login: issues a session token. Body: {"email","password"}. The
//     token is also surfaced via the `X-Session-Token` header and a
//     `session_token` cookie.
//   - POST /api/logout: revokes the current token and clears the cookie.
//   - POST /api/register: creates a pending referee account.
//   - POST /api/generate-briefing: drafts a briefing from a caller supplied
//     competition and attendee list.
//
// Session endpoints (any approved user):
//   - GET /api/me, PUT /api/me/profile, PUT /api/me/preferences,
//     GET /api/me/dashboard
//   - GET /api/competitions, GET /api/competitions/{id},
//     POST /api/competitions/{id}/rsvp
//   - GET /api/competitions/{id}/documents/{docID}: streams the attachment or
//     redirects to a presigned URL.
//   - GET /api/competitions/{id}/calendar, GET /api/competitions/{id}/calendar.png,
//     GET /api/competitions/{id}/briefing
//   - GET /api/notifications, POST /api/notifications/{id}/read,
//     POST /api/notifications/read-all, GET /api/notifications/ws
//   - GET /api/committee
//
// Administrator endpoints:
//   - GET /api/users, GET /api/users/export.csv, POST /api/users/{id}/approve,
//     PUT /api/users/{id}/role, DELETE /api/users/{id}
//   - POST /api/competitions, GET /api/competitions/export.csv,
//     PUT|DELETE /api/competitions/{id}, POST /api/competitions/{id}/payment
//   - POST /api/competitions/{id}/documents (multipart field "file"),
//     DELETE /api/competitions/{id}/documents/{docID}
//   - PUT /api/committee/members/{id}, PUT /api/committee/config
//   - GET /api/stats?season=YYYY, GET /api/stats/export.csv?season=YYYY
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
