// Package http serves the conference portal JSON API.
//
// The router exposes the following endpoints:
//   - GET /healthz: liveness. Responds {"status":"ok"} or 503 when the store
//     cannot be reached.
//   - POST /api/speaker-sessions: speaker login. Body {"speaker_id","phone"}.
//     Response {"speaker","token","expires_at"}.
//   - GET /api/schedule: master schedule as {"entries"}. With ?group=day the
//     response is {"days":[{"day","entries"}]} in first-appearance order.
//   - POST /api/schedule, PUT /api/schedule/{id}, DELETE /api/schedule/{id}:
//     administrator writes. Create and update respond {"entry","warnings"}
//     where warnings list venue clashes that did not block the write.
//   - GET /api/speakers, POST /api/speakers, PUT /api/speakers/{id},
//     DELETE /api/speakers/{id}: administrator speaker management exchanging
//     the speakerDTO payload defined in speaker_handler.go.
//   - GET /api/personal-sessions?speaker_id=: the talks of one speaker, for
//     that speaker's token or any administrator.
//   - POST /api/admin/sessions, GET /api/admin/sessions/current,
//     POST /api/admin/sessions/current/refresh, DELETE /api/admin/sessions/current:
//     administrator sessions. Tokens are read from the Authorization bearer
//     header or the session_token cookie.
//   - GET /api/maps, GET /api/maps/{name}: the campus map catalog.
//
// Errors are rendered as {"error_code","message","errors"}.
package http
