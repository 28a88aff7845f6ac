package config

import "time"

// Defaults applied when the matching environment variable is unset.
const (
	// DefaultDatabasePath is the default path for the library database
	DefaultDatabasePath = "./mymanga.db"

	DefaultBusyTimeout = 5 * time.Second

	// DefaultMinPageBytes skips thumbnails and icons in image uploads
	DefaultMinPageBytes  = 5000
	DefaultEncodeWorkers = 4

	DefaultBcryptCost = 10

	// DefaultAdminEmail and DefaultAdminDemoPassword are the credentials that
	// lazily create the administrator account on first login.
	DefaultAdminEmail        = "admin@mymanga.com"
	DefaultAdminDemoPassword = "password"

	// DefaultMaintenanceSchedule runs maintenance hourly at :00
	DefaultMaintenanceSchedule = "0 * * * *"
)
