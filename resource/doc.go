// Package resource provides object handle tables and shared references.
//
// # Handle Table
//
// A session publishes service objects through a table that maps integer
// handles to Go values:
//
//	table := resource.NewTable()
//
//	// Publish a value, get a handle
//	handle := table.Insert(typeID, myValue)
//
//	// Retrieve value by handle
//	value, ok := table.Get(handle)
//
//	// Drop the value; Dropper implementations are called
//	value, ok := table.Remove(handle)
//
// Handles are typed - each object kind gets a type ID, and GetTyped refuses
// a handle of another kind. Handle 0 is never issued; Insert returns it when
// the table is closed or its object limit is reached.
//
// # Observers
//
// Register observers to track object lifecycle events:
//
//	table.Subscribe(observer)
//
// # Shared References
//
// Ref is a reference-counted holder. Each holder owns its own Ref and calls
// Release once; the release function runs when the last holder lets go:
//
//	root := resource.NewRef(fs, func(fs FileSystem) { fs.Close() })
//	child := root.Clone()
//	root.Release()  // fs still live
//	child.Release() // fs closed
//
// Releasing the same Ref twice is a no-op.
package resource
