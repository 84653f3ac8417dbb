package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

// Names of the HistoryStore operations as reported by Calls.
const (
	CallQueryOpenIntervals = "query_open_intervals"
	CallUpdateRecord       = "update_record"
	CallInsertRecord       = "insert_record"
)

// HistoryStore is an in-memory versionhistory.HistoryStore.
type HistoryStore struct {
	mu           sync.Mutex
	records      versionhistory.HistoryRecords
	nextID       int64
	queryOpenErr error
	updateErr    error
	insertErr    error
	calls        []string
}

// NewHistoryStore creates an empty HistoryStore.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{records: make(versionhistory.HistoryRecords, 0)}
}

// QueryOpenIntervals implements versionhistory.HistoryStore.
func (s *HistoryStore) QueryOpenIntervals(
	_ context.Context,
	entityRef string,
	asOf time.Time,
) (versionhistory.HistoryRecords, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, CallQueryOpenIntervals)

	if s.queryOpenErr != nil {
		return nil, s.queryOpenErr
	}

	open := make(versionhistory.HistoryRecords, 0, 1)
	for _, record := range s.records {
		if record.EntityRef == entityRef && record.ValidUntil.After(asOf) {
			open = append(open, cloneRecord(record))
		}
	}

	return open, nil
}

// UpdateRecord implements versionhistory.HistoryStore. Only ValidUntil is written.
func (s *HistoryStore) UpdateRecord(_ context.Context, record versionhistory.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, CallUpdateRecord)

	if s.updateErr != nil {
		return s.updateErr
	}

	for i := range s.records {
		if s.records[i].ID == record.ID {
			s.records[i].ValidUntil = record.ValidUntil
			return nil
		}
	}

	return versionhistory.ErrRecordNotUpdated
}

// InsertRecord implements versionhistory.HistoryStore.
func (s *HistoryStore) InsertRecord(_ context.Context, record versionhistory.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, CallInsertRecord)

	if s.insertErr != nil {
		return s.insertErr
	}

	s.nextID++
	record = cloneRecord(record)
	record.ID = s.nextID
	s.records = append(s.records, record)

	return nil
}

// QueryHistory implements versionhistory.HistoryStore.
func (s *HistoryStore) QueryHistory(_ context.Context, entityRef string) (versionhistory.HistoryRecords, error) {
	return s.RecordsFor(entityRef), nil
}

// QueryVersionAt implements versionhistory.HistoryStore.
func (s *HistoryStore) QueryVersionAt(
	_ context.Context,
	entityRef string,
	t time.Time,
) (versionhistory.HistoryRecord, error) {

	for _, record := range s.RecordsFor(entityRef) {
		if record.IsValidAt(t) {
			return record, nil
		}
	}

	return versionhistory.HistoryRecord{}, versionhistory.ErrNoVersionAt
}

// Checkpoint implements Participant.
func (s *HistoryStore) Checkpoint() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := make(versionhistory.HistoryRecords, 0, len(s.records))
	for _, record := range s.records {
		saved = append(saved, cloneRecord(record))
	}
	savedNextID := s.nextID

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.records = saved
		s.nextID = savedNextID
	}
}

// RecordsFor returns the records of entityRef ordered by ValidFrom.
func (s *HistoryStore) RecordsFor(entityRef string) versionhistory.HistoryRecords {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make(versionhistory.HistoryRecords, 0)
	for _, record := range s.records {
		if record.EntityRef == entityRef {
			records = append(records, cloneRecord(record))
		}
	}

	slices.SortStableFunc(records, func(a, b versionhistory.HistoryRecord) int {
		return a.ValidFrom.Compare(b.ValidFrom)
	})

	return records
}

// OpenRecordsFor returns the records of entityRef whose ValidUntil equals sentinel.
func (s *HistoryStore) OpenRecordsFor(entityRef string, sentinel time.Time) versionhistory.HistoryRecords {
	open := make(versionhistory.HistoryRecords, 0)
	for _, record := range s.RecordsFor(entityRef) {
		if record.IsOpen(sentinel) {
			open = append(open, record)
		}
	}

	return open
}

// Count returns the number of stored records over all entities.
func (s *HistoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// Seed stores records as they are, e.g. to set up inconsistent timelines. IDs are assigned.
func (s *HistoryStore) Seed(records ...versionhistory.HistoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range records {
		s.nextID++
		record = cloneRecord(record)
		record.ID = s.nextID
		s.records = append(s.records, record)
	}
}

// Calls returns the sequence of write-path operations (see the Call constants) invoked so far.
func (s *HistoryStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.calls)
}

// FailQueryOpenIntervalsWith makes all following QueryOpenIntervals calls fail with err; nil heals the store.
func (s *HistoryStore) FailQueryOpenIntervalsWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queryOpenErr = err
}

// FailUpdateWith makes all following UpdateRecord calls fail with err; nil heals the store.
func (s *HistoryStore) FailUpdateWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updateErr = err
}

// FailInsertWith makes all following InsertRecord calls fail with err; nil heals the store.
func (s *HistoryStore) FailInsertWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insertErr = err
}

func cloneRecord(record versionhistory.HistoryRecord) versionhistory.HistoryRecord {
	record.Fields = record.Fields.Clone()

	return record
}

// Compile-time checks.
var (
	_ versionhistory.HistoryStore = (*HistoryStore)(nil)
	_ versionhistory.Transactor   = (*Transactor)(nil)
	_ Participant                 = (*HistoryStore)(nil)
)
