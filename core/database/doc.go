// Package database handles the MySQL connection for the document tracker.
//
// It provides a wrapper around GORM that configures the connection from the
// application's configuration: DSN building with encoded credentials, pool
// limits, and an initial ping with a bounded timeout.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
