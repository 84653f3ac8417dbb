// Package historystoretest provides the behaviour every versionhistory.HistoryStore engine must show,
// as a suite of subtests that engine packages run against their own database.
//
// Usage:
//
//	func Test_HistoryStore_Contract(t *testing.T) {
//		historystoretest.RunContractTests(t, func(t *testing.T) historystoretest.Subject {
//			return givenEmptyHistoryStore(t)
//		})
//	}
package historystoretest
