package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	SettingsFile   string
	Port           string
	WorkerCount    int
	SeenKeyLimit   int
	SweepInterval  int // hours
	RetentionDays  int
	ReplayFeedFile string
	APIAccessKey   string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
