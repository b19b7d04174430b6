package main

import (
	"log"
	"sort"
)

// Consolidate groups raw records that cross-reference each other into
// consolidated tickets. Records are elements 0..n-1 of a union-find arena;
// each distinct reference id mentioned in or owned by a record gets its own
// element on demand, so a mention links through the reference even when the
// referenced record is absent from this run.
//
// The resulting partition depends only on the union edge set, not on input
// order.
func Consolidate(records []RawRecord) []ConsolidatedTicket {
	var valid []RawRecord
	for _, r := range records {
		if !r.Valid() {
			log.Printf("consolidate skipping malformed record source=%s id=%s", r.Reference.Source, r.Reference.ID)
			continue
		}
		valid = append(valid, r)
	}

	uf := newUnionFind(len(valid))
	refElem := make(map[string]int) // bare reference id -> element
	elemFor := func(id string) int {
		if e, ok := refElem[id]; ok {
			return e
		}
		e := uf.add()
		refElem[id] = e
		return e
	}

	// Every record is joined with its own reference id, then with every
	// reference id its text mentions. Mentions are matched on the bare id,
	// the way tracker keys are written in prose.
	mentioned := make(map[int][]SourceReference, len(valid))
	for i, rec := range valid {
		uf.union(i, elemFor(rec.Reference.ID))
		refs := ExtractReferences(rec.RawText, rec.Reference.Source)
		mentioned[i] = refs
		for _, ref := range refs {
			if ref.ID == rec.Reference.ID {
				continue
			}
			uf.union(i, elemFor(ref.ID))
		}
	}

	// Group records by component root.
	groups := make(map[int][]int)
	for i := range valid {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}

	merged := 0
	tickets := make([]ConsolidatedTicket, 0, len(groups))
	for _, indices := range groups {
		if len(indices) > 1 {
			merged++
		}
		members := make([]RawRecord, len(indices))
		for j, i := range indices {
			members[j] = valid[i]
		}
		var extra []SourceReference
		for _, i := range indices {
			extra = append(extra, mentioned[i]...)
		}
		tickets = append(tickets, mergeRecords(members, extra))
	}

	// Deterministic output order regardless of map iteration.
	sort.Slice(tickets, func(a, b int) bool { return tickets[a].ID < tickets[b].ID })

	log.Printf("consolidate groups=%d merged=%d standalone=%d from=%d records",
		len(tickets), merged, len(tickets)-merged, len(valid))
	return tickets
}

// mergeRecords builds one consolidated ticket from the records of a
// connected component. mentioned references that resolve to no record in
// this run are kept as dangling references.
func mergeRecords(members []RawRecord, mentioned []SourceReference) ConsolidatedTicket {
	// Earliest record is primary: it supplies title and status.
	sort.Slice(members, func(a, b int) bool {
		if !members[a].CreatedAt.Equal(members[b].CreatedAt) {
			return members[a].CreatedAt.Before(members[b].CreatedAt)
		}
		return members[a].Reference.Key() < members[b].Reference.Key()
	})
	primary := members[0]

	var refs []SourceReference
	owned := make(map[string]bool)
	for _, m := range members {
		refs = append(refs, m.Reference)
		owned[m.Reference.ID] = true
	}
	seenDangling := make(map[string]bool)
	for _, ref := range mentioned {
		if owned[ref.ID] || seenDangling[ref.ID] {
			continue
		}
		seenDangling[ref.ID] = true
		refs = append(refs, ref)
	}

	// People dedup by (source, source_id), first sighting wins.
	seenPeople := make(map[string]bool)
	var people []Person
	for _, m := range members {
		for _, p := range m.People {
			key := p.Source + ":" + p.SourceID
			if seenPeople[key] {
				continue
			}
			seenPeople[key] = true
			people = append(people, p)
		}
	}

	// Conversations interleave by timestamp; exact ties break on source
	// name then original sequence so the merge order is reproducible.
	type seqMessage struct {
		Message
		seq int
	}
	var conv []seqMessage
	for _, m := range members {
		for i, msg := range m.Conversation {
			conv = append(conv, seqMessage{Message: msg, seq: i})
		}
	}
	sort.SliceStable(conv, func(a, b int) bool {
		if !conv[a].Timestamp.Equal(conv[b].Timestamp) {
			return conv[a].Timestamp.Before(conv[b].Timestamp)
		}
		if conv[a].Source != conv[b].Source {
			return conv[a].Source < conv[b].Source
		}
		return conv[a].seq < conv[b].seq
	})
	conversation := make([]Message, len(conv))
	for i, m := range conv {
		conversation[i] = m.Message
	}

	updatedAt := primary.UpdatedAt
	for _, m := range members {
		if m.UpdatedAt.After(updatedAt) {
			updatedAt = m.UpdatedAt
		}
	}

	// Ticket id derives from the smallest member reference key, so reruns
	// over the same input produce the same ids.
	id := members[0].Reference.Key()
	for _, m := range members[1:] {
		if k := m.Reference.Key(); k < id {
			id = k
		}
	}

	return ConsolidatedTicket{
		ID:           id,
		References:   refs,
		Title:        primary.Title,
		Status:       primary.Status,
		CreatedAt:    primary.CreatedAt,
		UpdatedAt:    updatedAt,
		People:       people,
		Conversation: conversation,
	}
}
