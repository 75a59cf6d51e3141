// Package utils provides small helpers shared across mysqlup.
//
// # Identifier Utilities (identifier.go)
//
// Generated SQL quotes every database, schema and table name with backticks:
//
//	utils.QuoteIdentifier("orders")
//	// Result: `orders`
//
//	schema := "orders"
//	utils.QuoteQualifiedName(&schema, "schemaversions")
//	// Result: `orders`.`schemaversions`
//
// Embedded backticks are doubled, so user-supplied names can never break out
// of the identifier.
//
// # Pointers (ptr.go)
//
// Ptr returns a pointer to any value, which is handy for optional fields such
// as a journal schema:
//
//	schema := utils.Ptr("orders")
package utils
