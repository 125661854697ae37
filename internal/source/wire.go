package source

import (
	"github.com/pegasus-osint/pegasus-bazooka/internal/config"
	"github.com/pegasus-osint/pegasus-bazooka/internal/fetcher"
)

// BuildRegistry registers every platform adapter against the given
// configuration and shared fetcher.
func BuildRegistry(cfg *config.Config, f fetcher.Fetcher) *Registry {
	reg := NewRegistry()
	reg.Register(NewTwitter(cfg.Sources.Twitter, f))
	reg.Register(NewYouTube(cfg.Sources.YouTube, f))
	reg.Register(NewFlickr(cfg.Sources.Flickr, f))
	reg.Register(NewVK(cfg.Sources.VK, f))
	reg.Register(NewInstagram(cfg.Sources.Instagram, f))
	reg.Register(NewTrendsmap(cfg.Sources.Trendsmap, f))
	reg.Register(NewPastvu(cfg.Sources.Pastvu, f))
	reg.Register(NewWikipedia(cfg.Sources.Wikipedia, f))
	reg.Register(NewPaintedPlanet(cfg.Sources.PaintedPlanet, f))
	return reg
}
