// Package corpus assembles accepted case records into the corpus file and
// derives the aggregate statistics written next to it.
package corpus
