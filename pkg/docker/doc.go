// Package docker runs MySQL servers in Docker for local development and
// integration testing.
//
// Two flavours are provided. Container wraps the testcontainers MySQL module
// and is meant for short-lived servers owned by a test or a single command;
// testcontainers removes it when the process exits. Engine talks to the Docker
// API directly and manages the long-lived, named server behind
// `mysqlup dev up` and `mysqlup dev down`.
//
// # Usage Example
//
//	container := docker.NewWithOptions(docker.DockerOptions{
//		Version:   "8.4",
//		Database:  "orders",
//		ConfigDir: "db/mysql.d",
//	})
//
//	ctx := context.Background()
//	defer container.Stop(ctx)
//
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	// Server=localhost;Port=32771;Database=orders;Uid=root;Pwd=mysqlup
//	connStr, _ := container.ConnectionString(ctx)
//
//	builder, _ := upgrade.MySQLDatabase(connStr)
//
// When ConfigDir is set its .cnf files are mounted into /etc/mysql/conf.d so
// the container runs with the same server settings as the target environment.
package docker
