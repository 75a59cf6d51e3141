// Package connstr parses MySQL connection strings written in the
// semicolon-delimited key=value form (Server=db;Database=orders;Uid=u;Pwd=secret).
//
// It is the single place that answers "which database does this string
// target". The upgrade builder uses DatabaseName and the drop utility uses
// Parse; both resolve the first case-insensitive "database" segment.
//
// Derived strings are produced by pure transforms on a parsed Descriptor:
//
//	desc, _ := connstr.Parse("Server=db;Database=orders;Uid=u;Pwd=secret")
//
//	desc.Master().String()   // Server=db;Database=mysql;Uid=u;Pwd=secret
//	desc.Redacted().String() // Server=db;Database=orders;Uid=u;Pwd=******
//
// Redaction keeps the password length. It exists so connection strings can be
// logged; it is not a security boundary.
package connstr
