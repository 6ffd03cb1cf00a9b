package config

import "os"

func BasePath() string {
	return os.Getenv("APP_BASE_PATH")
}

// Port is the listen address, ":8080" unless APP_PORT says otherwise.
func Port() string {
	port, ok := os.LookupEnv("APP_PORT")
	if !ok || port == "" {
		return ":8080"
	}
	return port
}
