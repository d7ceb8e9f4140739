// Package mmap maps snapshot files read-only into memory.
//
//	m, err := mmap.Open("users.snap")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// Unix uses mmap(2) and madvise(2); Windows uses MapViewOfFile and ignores
// access hints. A Mapping is safe for concurrent reads. Close is idempotent,
// but slices obtained from Bytes or Region must not be used after it.
package mmap
