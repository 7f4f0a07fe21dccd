// Package ws streams session events to desktop clients over WebSocket.
//
// A connection first receives a session.snapshot frame, then every event the
// session publishes. Clients may send {"type":"ping"} and get a pong back.
// The stream ends with session.ended when the session is deleted.
package ws
