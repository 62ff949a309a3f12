// Package core provides the confinement and lifecycle primitives the
// mirror engine is built on.
//
// # Loop
//
// A Loop is a serial task queue. Documents are confined to one: every
// upstream change notification is dispatched onto the loop and applied by
// whichever goroutine drains it, one task at a time. A host either drives
// the loop itself:
//
//	loop := core.NewLoop()
//	doc, _ := mirror.New(root, mirror.Options{Loop: loop})
//	list.Append(item) // queued
//	loop.Drain()      // applied here
//
// or hands it a goroutine with Run and talks to it through Call:
//
//	go loop.Run(ctx)
//	loop.Call(ctx, func() { text = doc.Text() })
//
// # Lifetime
//
// A Lifetime owns cleanup functions and nested lifetimes. Each document
// node holds one; disposing it removes the node's subscription to its
// child source and disposes every descendant's lifetime first.
package core
