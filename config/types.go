// Package config loads and represents the QoS controller's admin/config
// surface (spec §6): the filesystem handle, metrics endpoint, window
// length, per-scope thresholds and throttled rates, the per-UID overrides,
// and the boot-time enabled flag.
//
// Configuration is reloaded from disk/env on every process start; nothing
// here is persisted back by the controller itself (spec §1, Non-goals).
package config

// optionNames is the ordered, canonical list of admin-surface option names
// from spec §4.7, used by Controller.Encode to answer schema requests.
var optionNames = []string{
	"enabled",
	"interval",
	"mbps_threshold",
	"throttled_oss_rpc_rate",
	"iops_threshold",
	"throttled_mds_rpc_rate",
	"metrics_collect_interval",
	"metrics_server",
	"users",
}

// OptionNames returns the recognised admin option names in their
// canonical order.
func OptionNames() []string {
	out := make([]string, len(optionNames))
	copy(out, optionNames)
	return out
}

// UserOptions is one UID's threshold/rate overrides as they appear on the
// admin surface, using Lustre's OSS (object storage server, data scope)
// and MDS (metadata server) vocabulary.
type UserOptions struct {
	MbpsThreshold        float64 `mapstructure:"mbps_threshold" toml:"mbps_threshold"`
	ThrottledOSSRPCRate  float64 `mapstructure:"throttled_oss_rpc_rate" toml:"throttled_oss_rpc_rate"`
	IopsThreshold        float64 `mapstructure:"iops_threshold" toml:"iops_threshold"`
	ThrottledMDSRPCRate  float64 `mapstructure:"throttled_mds_rpc_rate" toml:"throttled_mds_rpc_rate"`
}

// Options is the flat admin/config surface (spec §4.7's option names),
// the shape Viper unmarshals into and Encode serialises back out.
type Options struct {
	Enabled                bool                   `mapstructure:"enabled" toml:"enabled"`
	IntervalSeconds         int                    `mapstructure:"interval" toml:"interval"`
	MbpsThreshold           float64                `mapstructure:"mbps_threshold" toml:"mbps_threshold"`
	ThrottledOSSRPCRate     float64                `mapstructure:"throttled_oss_rpc_rate" toml:"throttled_oss_rpc_rate"`
	IopsThreshold           float64                `mapstructure:"iops_threshold" toml:"iops_threshold"`
	ThrottledMDSRPCRate     float64                `mapstructure:"throttled_mds_rpc_rate" toml:"throttled_mds_rpc_rate"`
	MetricsCollectInterval  int                    `mapstructure:"metrics_collect_interval" toml:"metrics_collect_interval"`
	MetricsServer           string                 `mapstructure:"metrics_server" toml:"metrics_server"`
	Users                   map[string]UserOptions `mapstructure:"users" toml:"users"`
}

// QosUser is one user's resolved throttling parameters, derived from
// Options. Immutable once loaded (spec §3): nothing in this module
// mutates a QosUser after Load returns.
type QosUser struct {
	// ThroughputThresholdBytesPerSec is the sustained data-scope rate (in
	// bytes/sec) above which, multiplied out over a window, the user is
	// considered over budget.
	ThroughputThresholdBytesPerSec float64

	// ThrottledDataRPCRate is the data-server RPC rate (requests/sec)
	// installed on every data server when this user is over budget.
	ThrottledDataRPCRate float64

	// MetadataThresholdOpsPerSec is the sustained metadata-scope rate
	// (ops/sec) above which the user is over budget.
	MetadataThresholdOpsPerSec float64

	// ThrottledMetadataRPCRate is the metadata-server RPC rate
	// (requests/sec) installed on every metadata server when this user is
	// over budget.
	ThrottledMetadataRPCRate float64
}

const bytesPerMB = 1048576.0

func userFromOptions(o UserOptions) QosUser {
	return QosUser{
		ThroughputThresholdBytesPerSec: o.MbpsThreshold * bytesPerMB,
		ThrottledDataRPCRate:           o.ThrottledOSSRPCRate,
		MetadataThresholdOpsPerSec:     o.IopsThreshold,
		ThrottledMetadataRPCRate:       o.ThrottledMDSRPCRate,
	}
}

// ThroughputBudget returns the total bytes permitted in one window of the
// given length, per spec §4.6 step 2: budget = threshold_rate * window_length.
func (u QosUser) ThroughputBudget(windowLengthSeconds int) float64 {
	return u.ThroughputThresholdBytesPerSec * float64(windowLengthSeconds)
}

// MetadataBudget returns the total ops permitted in one window of the
// given length.
func (u QosUser) MetadataBudget(windowLengthSeconds int) float64 {
	return u.MetadataThresholdOpsPerSec * float64(windowLengthSeconds)
}

// QosPolicy maps UIDs to their QosUser, with a Default for UIDs not
// otherwise listed (spec §3).
type QosPolicy struct {
	Users   map[string]QosUser
	Default QosUser

	// WindowLengthSeconds is the rolling accounting window (spec §3).
	WindowLengthSeconds int

	// MetricsCollectionIntervalSeconds is the metrics store's sample
	// period, used to convert reported rates into window totals (spec §4.5).
	MetricsCollectionIntervalSeconds int
}

// ForUID resolves the applicable QosUser: the explicit entry if present,
// else the policy default (spec §4.6 step 1).
func (p QosPolicy) ForUID(uid string) QosUser {
	if u, ok := p.Users[uid]; ok {
		return u
	}
	return p.Default
}

// Policy derives the QosPolicy the rest of the system consumes from the
// flat admin Options.
func (o Options) Policy() QosPolicy {
	users := make(map[string]QosUser, len(o.Users))
	for uid, uo := range o.Users {
		users[uid] = userFromOptions(uo)
	}
	return QosPolicy{
		Users: users,
		Default: userFromOptions(UserOptions{
			MbpsThreshold:       o.MbpsThreshold,
			ThrottledOSSRPCRate: o.ThrottledOSSRPCRate,
			IopsThreshold:       o.IopsThreshold,
			ThrottledMDSRPCRate: o.ThrottledMDSRPCRate,
		}),
		WindowLengthSeconds:              o.IntervalSeconds,
		MetricsCollectionIntervalSeconds: o.MetricsCollectInterval,
	}
}

// Config is the full admin/config surface a Controller is constructed
// with (spec §6). Filesystem is fixed per controller instance and is not
// itself one of the admin-encodable Options.
type Config struct {
	Filesystem string
	Options    Options
}
