// Package fixtures provides test entities, snapshotters, and a controllable clock for versionhistory tests.
package fixtures
