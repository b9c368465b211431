// Package version provides version information for the chainlink-oracle-go application.
package version

// Version is the current version of the chainlink-oracle-go application.
const Version = "0.3.0"

// AgentString returns the full agent string with versioning.
// Format: @strathcole/chainlink-oracle-go@v{version}
func AgentString() string {
	return "@strathcole/chainlink-oracle-go@v" + Version
}
