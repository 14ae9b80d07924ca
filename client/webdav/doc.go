// Package webdav builds PROPFIND requests and turns Multi-Status
// responses into typed, visitable properties.
//
// Every property kind is a distinct type implementing the sealed
// [Property] interface. Mappers implement [Visitor] and receive one call
// per kind:
//
//	resources, err := webdav.ParseMultistatus(body)
//	for _, r := range resources {
//		r.Walk(myVisitor)
//	}
package webdav
