// Package handler implements the HTTP endpoints of SessGauge: health
// probes, the session statistics admin view, and the session endpoint each
// deployed application context serves.
//
// All JSON responses use the Response envelope.
package handler
