// Package dropdb removes a MySQL database after confirming it exists.
//
// The drop runs over an administrative connection: the target's connection
// string with its database replaced by "mysql". The master connection string is
// logged with the password masked before anything is opened.
//
// Dropping a database that doesn't exist is not an error, which makes the
// operation safe to repeat:
//
//	err := dropdb.DropDatabase(ctx, "Server=db;Database=orders;Uid=root;Pwd=secret", log, 30*time.Second)
//
// Concurrent drops of the same database race between the existence probe and
// the DROP statement. No locking is attempted.
package dropdb
