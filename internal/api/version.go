package api

import (
	"runtime"
	"runtime/debug"
	"sync"
)

// Build metadata, overridden with -ldflags "-X ...api.EngineVersion=...".
// EngineVersion is journaled with every reveal so replays can be matched to
// the code that produced them.
var (
	EngineVersion = "dev"
	GitCommit     = "unknown"
	BuildTime     = "unknown"
)

var fillFromBuildInfo sync.Once

// GetVersionInfo returns the build metadata, falling back to the VCS stamp
// the Go toolchain embeds when ldflags were not set.
func GetVersionInfo() VersionInfo {
	fillFromBuildInfo.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if GitCommit == "unknown" {
					GitCommit = s.Value
				}
			case "vcs.time":
				if BuildTime == "unknown" {
					BuildTime = s.Value
				}
			}
		}
	})
	return VersionInfo{
		EngineVersion: EngineVersion,
		GitCommit:     GitCommit,
		BuildTime:     BuildTime,
		GoVersion:     runtime.Version(),
	}
}
