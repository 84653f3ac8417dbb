package tasks

import (
	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

const (
	identityField = "id"
	asOfField     = "updated_at"
)

// HistoryEngine is a history store that also runs transactions, like the postgresengine and sqliteengine stores.
type HistoryEngine interface {
	versionhistory.HistoryStore
	versionhistory.Transactor
}

// NewTaskHistory creates the VersionedStore for Tasks.
// New versions become valid at the task's UpdatedAt. Task and history writes of one call share a transaction.
func NewTaskHistory(
	taskStore TaskStore,
	history HistoryEngine,
	options ...versionhistory.Option,
) (*versionhistory.VersionedStore[*Task], error) {

	snapshotter, err := versionhistory.NewStructSnapshotter[*Task](identityField)
	if err != nil {
		return nil, err
	}

	allOptions := append(
		[]versionhistory.Option{
			versionhistory.WithAsOfField(asOfField),
			versionhistory.WithTransactor(history),
		},
		options...,
	)

	return versionhistory.NewVersionedStore[*Task](taskStore, history, snapshotter, allOptions...)
}
