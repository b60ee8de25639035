package types

const (
	FlagHome      = "home"
	FlagChainID   = "chain-id"
	FlagOverwrite = "overwrite"
	FlagAdmin     = "admin"
	FlagMaxSubmit = "max-submissions"
)
