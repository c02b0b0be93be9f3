package data

// these are populated at build time using ldflags
var (
	Version   string
	GitCommit string
	GitBranch string
)
