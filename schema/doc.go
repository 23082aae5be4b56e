// Package schema generates the input schemas advertised by tools/list from
// the Go argument structs of each tool.
//
//	type PurchaseArgs struct {
//	    Name  string `json:"name" jsonschema:"required,description=Item name"`
//	    Price int64  `json:"price" jsonschema:"required,type=number"`
//	}
//
//	s := schema.MustGenerate(PurchaseArgs{})
//
// Recognised jsonschema tag parts are required, description=... and type=...
// The generated schema is descriptive only; argument decoding and defaulting
// is owned by each tool.
package schema
