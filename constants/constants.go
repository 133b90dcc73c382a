package constants

// Pipeline

const (
	DefaultChunkSize             = 100000
	DefaultParallelism           = 5
	DefaultStagingPrefix         = "raw"
	DefaultMarker                = "purchaseProtection"
	DefaultGrantee               = "admin"
	StatsCaptureFrequencySeconds = 5
	TimeFormatYearSeconds        = "20060102T150405" // used for human readable file names
	TimeFormatYearSecondsRegex   = "[0-9]{4}[0-9]{2}[0-9]{2}T[0-9]{6}"
	TimeFormatCsvTimestamp       = "2006-01-02 15:04:05.999999" // accepted by Redshift and Snowflake TIMESTAMP columns; trailing zeros are dropped.
	CsvFileExtension             = ".csv"
	EmojiBang                    = "\U0001F4A5"
	EnvVarPrefix                 = "RP" // prefixed for environment variables in twelveFactorMode
	ActionFuncsCommandReplicate  = "replicate"
	ActionFuncsCommandPlan       = "plan"
	ExportModeOutfile            = "outfile"
	ExportModeStream             = "stream"
	ConnectionTypeMySql          = "mysql"
	ConnectionTypeSqlServer      = "sqlserver"
	ConnectionTypeNetezza        = "netezza"
	ConnectionTypeRedshift       = "redshift"
	ConnectionTypeSnowflake      = "snowflake"
	ConnectionTypeS3             = "s3"
	ConnectionTypeMock           = "mock"
)

// Notification text.

const (
	SlackEmojiLoading = ":loading_dots:"
	SlackEmojiDone    = ":white_check_mark:"
	SlackEmojiFailed  = ":red-x-mark:"
)
