package utils

import "strings"

// QuoteIdentifier wraps a single MySQL identifier in backticks. Embedded
// backticks are doubled, so the result is always one identifier even when the
// name contains dots or quotes.
//
// Examples:
//   - "orders" -> "`orders`"
//   - "my.db" -> "`my.db`"
//   - "we`ird" -> "`we``ird`"
//   - "" -> ""
func QuoteIdentifier(name string) string {
	if name == "" {
		return ""
	}

	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QuoteQualifiedName formats schema.name with each part quoted. If schema is nil
// or empty, only the name is quoted.
//
// Examples:
//   - ("orders", "schemaversions") -> "`orders`.`schemaversions`"
//   - (nil, "schemaversions") -> "`schemaversions`"
//   - ("", "schemaversions") -> "`schemaversions`"
func QuoteQualifiedName(schema *string, name string) string {
	if schema != nil && *schema != "" {
		return QuoteIdentifier(*schema) + "." + QuoteIdentifier(name)
	}

	return QuoteIdentifier(name)
}
