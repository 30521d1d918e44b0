// Package media defines the playback primitive the preload manager warms.
//
// A [Handle] behaves like a headless media element: it is given a source, told to load, and reports
// progress through an event channel. The manager never inspects bytes; it only reacts to [Event]s.
//
// # Events
//
//   - [CanPlayThrough] : the handle holds enough data to play without stalling
//   - [Progress] : more data arrived; Event.Buffered carries contiguous seconds from the start
//   - [Error] : the load failed; Event.Err carries the cause
//
// The event channel stays open for the handle's lifetime and is closed by [Handle.Close].
//
// # HTTP handles
//
// [HTTPHandle] fetches the leading bytes of a progressive video (mp4/webm) with a Range request and
// converts buffered bytes to seconds with an assumed bitrate. Reads go through a token bucket shared by
// every handle from the same [HTTPFactory], so look-ahead fetches cannot starve the item on screen.
package media
