package sqlstore

// Dialect captures the differences between the supported SQL databases
type Dialect struct {
	Name       string // golang-migrate database name and migrations directory
	DriverName string // database/sql driver name

	insertQuery string
	selectQuery string
}

var (
	// SQLite is served by modernc.org/sqlite
	SQLite = Dialect{
		Name:        "sqlite",
		DriverName:  "sqlite",
		insertQuery: `INSERT INTO images (id, data, latitude, longitude, created_at) VALUES (?, ?, ?, ?, ?)`,
		selectQuery: `SELECT data, latitude, longitude, created_at FROM images WHERE id = ?`,
	}

	// Postgres is served by github.com/lib/pq
	Postgres = Dialect{
		Name:        "postgres",
		DriverName:  "postgres",
		insertQuery: `INSERT INTO images (id, data, latitude, longitude, created_at) VALUES ($1, $2, $3, $4, $5)`,
		selectQuery: `SELECT data, latitude, longitude, created_at FROM images WHERE id = $1`,
	}
)
