package flags

import "github.com/urfave/cli/v2"

const (
	TodoCategory    = "TODOLIST"
	AccountCategory = "ACCOUNT"
	APICategory     = "API"
	ClientCategory  = "CLIENT"
	PerfCategory    = "PERFORMANCE TUNING"
	MinerCategory   = "MINER"
	LoggingCategory = "LOGGING AND DEBUGGING"
	MetricsCategory = "METRICS AND STATS"
	MiscCategory    = "MISC"
)

func init() {
	cli.HelpFlag.(*cli.BoolFlag).Category = MiscCategory
	cli.VersionFlag.(*cli.BoolFlag).Category = MiscCategory
}
