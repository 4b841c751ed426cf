// Package infinite reads module archives and the tags packed inside them.
//
// A module is loaded fully into memory and indexed by Open or New. Entries
// are decompressed and parsed on demand by ReadTag, which stores the result
// on the entry. Decoded tags are walked into caller-defined records through
// the tagstruct protocol.
//
// # Quick Start
//
// Open a module and decode one tag:
//
//	m, err := infinite.Open("deploy/any/globals/globals-rtx-new.module",
//	    infinite.WithDecoder(infinite.MethodKraken, kraken.Decode),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := m.ReadTag(0); err != nil {
//	    return err
//	}
//	entry, _ := m.Entry(0)
//	var weapon Weapon
//	if err := entry.Decode(&weapon); err != nil {
//	    return err
//	}
//
// References between tags are plain indices. ResolveTag and ResolveResource
// map a decoded reference to an entry index; nothing is loaded implicitly.
//
// # Concurrency
//
// ReadTag mutates the entry it loads, so a Module must not be loaded from
// several goroutines without synchronization. Entries that are already
// loaded may be read concurrently. TagCache serializes loads and memoizes
// decoded tags across goroutines.
package infinite
