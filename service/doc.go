// Package service implements an FDSN dataselect web service that answers
// queries from a record stream source, typically a combined source of a
// realtime server and an archive.
package service
