// Package archive talks to the judicial archive: it builds search result URLs
// for a date window, extracts case links from result pages, and fetches case
// documents through a rate limited HTTP client.
package archive
