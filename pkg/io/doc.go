// Package io reads and writes the small JSON documents the org chart keeps
// on disk: settings, viewer preferences, sessions and exported artifacts.
//
// Writes are atomic. Data goes to a temporary file in the target directory,
// which is renamed over the destination once it is complete, so a reader
// never sees a partially written document and a failed write leaves the
// previous version in place.
//
//	var prefs Prefs
//	found, err := io.ReadJSON(path, &prefs)
//	...
//	err = io.WriteJSON(path, prefs)
//
// Missing files are not errors for [ReadJSON]; it reports found=false and
// leaves v untouched, so callers can pre-populate v with defaults.
package io
