package store

// Compile-time assertions that every concrete store implements the full
// PendingStore contract. These never run as tests; a failure here is a
// build failure in this file.
var (
	_ PendingStore[int] = (*MemoryStore[int])(nil)
	_ PendingStore[int] = (*SQLStore[int])(nil)
	_ PendingStore[int] = (*MySQLStore[int])(nil)
	_ PendingStore[int] = (*PostgresStore[int])(nil)

	_ PendingScanner[int] = (*MemoryStore[int])(nil)
	_ PendingScanner[int] = (*SQLStore[int])(nil)
	_ PendingScanner[int] = (*MySQLStore[int])(nil)
	_ PendingScanner[int] = (*PostgresStore[int])(nil)
)
