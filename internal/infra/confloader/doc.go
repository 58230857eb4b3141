// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Command-line overrides (SetOverrides)
//  2. Environment variables (REDIKV_SECTION_KEY)
//  3. YAML configuration file
//  4. Defaults already present in the target struct
//
// Watcher reports writes to the configuration file so a running process
// can reapply the settings that are safe to change live.
package confloader
