package fixtures

import (
	"strconv"
	"time"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

// Document is a small versioned test entity. The zero ID marks a document that was never persisted.
type Document struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	Revision  int       `db:"revision"`
	UpdatedAt time.Time `db:"updated_at"`
}

// FixtureDocument returns a new, unsaved document.
func FixtureDocument(title, body string) Document {
	return Document{Title: title, Body: body}
}

// DocumentSnapshotter snapshots Documents with an explicit field list.
func DocumentSnapshotter() versionhistory.SnapshotterFuncs[Document] {
	return versionhistory.SnapshotterFuncs[Document]{
		IdentityFunc: func(document Document) (string, bool) {
			return document.ID, document.ID != ""
		},
		SnapshotFunc: func(document Document) versionhistory.Fields {
			return versionhistory.Fields{
				"title":      document.Title,
				"body":       document.Body,
				"revision":   document.Revision,
				"updated_at": document.UpdatedAt,
			}
		},
	}
}

// SequentialDocumentIDs returns an identity assigner for memstore.EntityStore producing "doc-1", "doc-2", ...
func SequentialDocumentIDs() func(Document) Document {
	next := 0

	return func(document Document) Document {
		next++
		document.ID = "doc-" + strconv.Itoa(next)

		return document
	}
}
