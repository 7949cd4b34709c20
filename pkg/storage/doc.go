// Package storage persists fetched case documents and provides the atomic
// write primitive shared by the checkpoint registry and the corpus writer.
//
// Raw documents live at <raw_dir>/<document id>.html where the document id
// is derived from the source URL only (see DocumentID).
package storage
