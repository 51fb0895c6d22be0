package database

import (
	"fmt"
	"strings"
)

// ConstructDatabaseURL appends a database name to a base postgres URL and
// forces sslmode=disable when the caller did not choose one. An empty
// database name leaves the base URL untouched, which lets deployments embed
// the database directly in DATABASE_URL.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	base := strings.TrimRight(baseURL, "/")

	var databaseURL string
	if host, query, found := strings.Cut(base, "?"); found {
		databaseURL = fmt.Sprintf("%s/%s?%s", host, databaseName, query)
	} else {
		databaseURL = fmt.Sprintf("%s/%s", base, databaseName)
	}

	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "?"
		if strings.Contains(databaseURL, "?") {
			separator = "&"
		}
		databaseURL += separator + "sslmode=disable"
	}

	return databaseURL
}
