// Package session provides in-memory session storage for nine-nine matches.
//
// A session pairs a short identifier with one engine instance and the rule
// set it was created from. Sessions use 4-character hex IDs that are looked
// up case-insensitively, so "AB12" and "ab12" name the same session.
//
// Manager is safe for concurrent use. It does not drive engines: the service
// layer owns timers and serialises input per session, and it is responsible
// for stopping a session's timers before calling Delete.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", "classic", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Sessions idle for an hour
//	stale := manager.Expired(time.Hour)
package session
