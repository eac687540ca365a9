// Package wantlist resolves lines of a delimited release export to Discogs
// releases and applies them to a user's wantlist.
//
// A line flows through Tokenize, Recover and Matcher.Match; the resolved
// releases are handed to Syncer.Apply. Pipeline drives this for a whole
// file. Everything remote is reached through the Catalog and UserList
// interfaces carried by a Session.
package wantlist
