package instance

import "os"

// GetID returns the identifier of this process for log correlation. Platform
// dyno names are used when no explicit id is set.
func GetID() string {
	for _, key := range []string{"FORRAJERIA_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
