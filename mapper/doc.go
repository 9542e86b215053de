// Package mapper converts objects between two shapes using declarative
// strategies.
//
// A strategy maps encoded-side keys to rules. A rule names the decoded-side
// path and optionally converts the value in each direction. The repository
// encodes response payloads into entities and decodes entities back into
// request payloads:
//
//	users := mapper.MustStrategy(mapper.Rules{
//		"id":        mapper.Number,
//		"isOnline":  mapper.Bool.AsAttrMap("is_online"),
//		"createdAt": mapper.DateTime.AsAttrMap("created_at"),
//		"roleId":    mapper.EncodeEntityKey("id", roles).AsAttrMap("role"),
//		"nickname":  mapper.Rename("nick"),
//	})
//
//	dm := mapper.NewDataMapper(users)
//	entity := dm.Encode(payload)
//	payload = dm.Decode(entity)
//
// Attributes whose conversion produces no value (or nil) are omitted from the
// result, so missing source fields never appear as explicit nulls.
package mapper
