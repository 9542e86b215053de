// Package restkit provides:
//
// - A uniform transport interface (Resource) over HTTP and storage backends
// - A declarative, bidirectional data mapper (see mapper/)
// - A generic repository that normalizes transport responses (see repository/)
// - A stable error model via Issues (path, code, message)
//
// Design policy:
//   - Keep only shared types in the root package; implementations live in
//     mapper/, resource/, storage/ and repository/.
//   - Mapping never fails: bad input yields NaN or no value, never an error.
//   - Transport errors travel through the repository unchanged.
//
// Typical usage:
//
//	users := mapper.MustStrategy(mapper.Rules{
//	    "id":        mapper.Number,
//	    "isOnline":  mapper.Bool.AsAttrMap("is_online"),
//	    "createdAt": mapper.DateTime.AsAttrMap("created_at"),
//	})
//	h, _ := resource.NewHTTP(resource.Config{BaseURL: "https://api.example.com"})
//	repo, _ := repository.New[restkit.Object](resource.NewRest(h, "users"),
//	    repository.WithMapper(mapper.NewDataMapper(users)))
//	page, err := repo.Search(ctx, restkit.Object{"page": 1, "name": "ann"})
package restkit
