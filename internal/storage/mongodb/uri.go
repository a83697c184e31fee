package mongodb

import (
	"net"
	"net/url"
	"strconv"

	"github.com/threedrepo/repo-backend/config"
)

// AdminDatabase holds users and is the authentication source for every
// connection.
const AdminDatabase = "admin"

// URI builds the connection string for one logical database. Credentials
// are always verified against the admin database.
func URI(cfg *config.MongoConfig, database, username, password string) string {
	u := url.URL{
		Scheme:   "mongodb",
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + database,
		RawQuery: "authSource=" + AdminDatabase,
	}
	if username != "" {
		u.User = url.UserPassword(username, password)
	}
	return u.String()
}
