package pool

import _ "modernc.org/sqlite"

const driverName = "sqlite"
