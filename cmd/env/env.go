package env

const (
	// Prefix is the prefix of every p2prates ENV variable
	Prefix = "P2PRATES_"

	// DBURLSuffix names the Postgres DSN variable
	DBURLSuffix = "DB_URL"

	// RedisURLSuffix names the (optional) Redis cache URL variable
	RedisURLSuffix = "REDIS_URL"
)
