package tool

import (
	"flag"

	"github.com/daikurogo/ipywidgets/types"
)

// SetFlags parses CLI flags and returns the override config.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod|none")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.IntVar(&cfg.UsePort, "usePort", 0, "override API port")
	flag.BoolVar(&cfg.UseHttps, "useHttps", false, "serve over https with a self-signed certificate")
	flag.StringVar(&cfg.UsePickDir, "usePickDir", "", "directory listed when the upload button is clicked")
	flag.StringVar(&cfg.UseRemoteSyncURL, "useRemoteSyncURL", "", "push every flushed state frame to this URL")
	flag.BoolVar(&cfg.UseMultiple, "useMultiple", false, "allow selecting more than one file")
	flag.BoolVar(&cfg.SkipNotify, "skipNotify", false, "if true, skip unix socket notifications")
	flag.Parse()
	return cfg
}

// ApplyFlagOverrides merges non-zero flag values into cfg.
func ApplyFlagOverrides(cfg *types.AppConfig, flags types.Config) {
	if flags.UsePort > 0 {
		cfg.Port = flags.UsePort
	}
	if flags.UseHttps {
		cfg.Protocol = "https"
	}
	if flags.UsePickDir != "" {
		cfg.PickDir = flags.UsePickDir
	}
	if flags.UseRemoteSyncURL != "" {
		cfg.RemoteSyncURL = flags.UseRemoteSyncURL
	}
	if flags.UseMultiple {
		cfg.Multiple = true
	}
}
