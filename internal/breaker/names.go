// README: Names of the guarded dependencies.
package breaker

// Dependency names shared by call sites and configuration overrides.
const (
	Postgres      = "postgres"
	Redis         = "redis"
	Notifications = "notifications"
	FCM           = "fcm"
	MQTT          = "mqtt"
	Maps          = "maps"
)

// Names lists every dependency; serve creates them eagerly so snapshots show
// all circuits from startup.
var Names = []string{Postgres, Redis, Notifications, FCM, MQTT, Maps}
