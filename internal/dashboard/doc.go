// Package dashboard serves the browser admin surface: a login form, a topic
// list editor, a pipeline trigger, and a table of recent runs. Sessions are
// held in memory and authentication compares credentials in constant time.
package dashboard
