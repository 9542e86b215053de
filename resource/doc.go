// Package resource provides the transports a repository talks to and the
// REST resource that addresses them.
//
//	h, _ := resource.NewHTTP(resource.Config{BaseURL: "https://api.example.com"})
//	users := resource.NewRest(h, "users")
//	res, err := users.Child(7).Get(ctx, restkit.Object{"expand": "roles"})
//
// HTTP is fetch-style: bodies are encoded by content type, responses decoded
// by their Content-Type and non-2xx statuses returned as *ResponseError.
// Storage keeps entities in a storage.Store instead of on a server.
package resource
