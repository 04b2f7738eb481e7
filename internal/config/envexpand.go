package config

import "os"

// ExpandEnv expands ${VAR} and $VAR references in YAML content before
// it is parsed, the same way `pkg/config/envexpand.go` does for
// tarsy.yaml. Missing variables expand to the empty string; Validate
// is responsible for catching required fields left empty by that.
func ExpandEnv(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
