package config

const (
	defaultDataDir               = "~/.local/share/fetcharr"
	defaultMaxRequests           = 3
	defaultMaxTimePendingMinutes = 60
	defaultPollIntervalMinutes   = 15
	defaultServerBind            = "127.0.0.1:7488"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultDiscordAPIBaseURL     = "https://discord.com/api/v10"
	defaultNotifyTimeoutSeconds  = 10

	testPollIntervalMinutes   = 1
	testMaxTimePendingMinutes = 1
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Deployment: DeploymentProd,
		DataDir:    defaultDataDir,
		Requests: Requests{
			MaxRequests: defaultMaxRequests,
		},
		Notifications: Notifications{
			APIBaseURL:     defaultDiscordAPIBaseURL,
			RequestTimeout: defaultNotifyTimeoutSeconds,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
