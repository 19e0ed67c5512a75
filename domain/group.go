package domain

import "time"

// Group collects entries that fall into the same truncated timestamp bucket, such as one minute.
// Two groups are equal when their truncated timestamps are equal.
type Group struct {
	Timestamp time.Time
	Entries   []*Entry
}

// Equal reports whether both groups cover the same bucket.
func (g Group) Equal(other Group) bool {
	return g.Timestamp.Equal(other.Timestamp)
}

// GroupEntries buckets entries by their creation time truncated to granularity.
// Entries keep their input order, so a newest-first page yields newest-first groups.
func GroupEntries(entries []*Entry, granularity time.Duration) []Group {
	groups := make([]Group, 0)
	index := make(map[int64]int)

	for _, entry := range entries {
		bucket := entry.CreatedAt().Truncate(granularity)
		key := bucket.UnixNano()
		if i, ok := index[key]; ok {
			groups[i].Entries = append(groups[i].Entries, entry)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, Group{Timestamp: bucket, Entries: []*Entry{entry}})
	}
	return groups
}
