package config

import "github.com/spf13/viper"

// SetDefaults configures default values for every recognised admin option,
// grounded on the teacher's am/defaults.go SetDefaults.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("enabled", false)
	v.SetDefault("interval", 60)                 // 60s accounting window
	v.SetDefault("mbps_threshold", 100.0)        // 100 MB/s default throughput budget
	v.SetDefault("throttled_oss_rpc_rate", 5.0)  // 5 req/s when over budget
	v.SetDefault("iops_threshold", 1000.0)       // 1000 ops/s default metadata budget
	v.SetDefault("throttled_mds_rpc_rate", 50.0) // 50 req/s when over budget
	v.SetDefault("metrics_collect_interval", 10) // metrics store samples every 10s
	v.SetDefault("metrics_server", "http://localhost:8086")
}

// BindSensitiveEnvVars explicitly binds configuration values that should
// be settable without a config file, grounded on am/load.go BindSensitiveEnvVars.
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("metrics_server", "QOSD_METRICS_SERVER")
	v.BindEnv("enabled", "QOSD_ENABLED")
}

// DefaultStandingMetadataRate is the rate (ops/sec) used for the
// ldlm_enqueue protective rule that the registry keeps installed whenever
// the metadata scope is in throttled mode (spec §4.3). The rule's name
// and match expression are registry.StandingMetadataRuleName and
// registry.StandingMetadataExpression: the registry is the only thing
// that installs or looks up that rule, so it owns the constants.
const DefaultStandingMetadataRate = 10000.0
