package poll

import (
	"github.com/Achi00/jobs-server/internal/config"
	"github.com/Achi00/jobs-server/internal/scrape/dump"
	email_scrape "github.com/Achi00/jobs-server/internal/scrape/email"
	"github.com/Achi00/jobs-server/internal/scrape/greenhouse"
	"github.com/Achi00/jobs-server/internal/scrape/lever"
	"github.com/Achi00/jobs-server/internal/scrape/types"
	"github.com/Achi00/jobs-server/internal/scrape/util"
)

// BuildSources returns the sources enabled in cfg. dumpDir is the resolved
// dump directory.
func BuildSources(cfg config.Config, dumpDir string, limiter *util.HostLimiter, imapPassword func() (string, error)) []types.Source {
	var out []types.Source
	if cfg.Sources.Dump.Enabled && dumpDir != "" {
		out = append(out, dump.New(dumpDir))
	}
	if cfg.Sources.Greenhouse.Enabled && len(cfg.Sources.Greenhouse.Companies) > 0 {
		out = append(out, greenhouse.New(cfg.Sources.Greenhouse.Companies, limiter))
	}
	if cfg.Sources.Lever.Enabled && len(cfg.Sources.Lever.Companies) > 0 {
		out = append(out, lever.New(cfg.Sources.Lever.Companies, limiter))
	}
	if cfg.Email.Enabled {
		out = append(out, &email_scrape.Source{Cfg: cfg, Password: imapPassword})
	}
	return out
}
