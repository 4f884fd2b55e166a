package engine

import (
	"log/slog"

	"github.com/daltunay/perfumes/config"
)

// Build assembles the fetch engine from configuration: the HTTP engine
// alone, or the HTTP and Rod engines raced by a Dispatcher when the browser
// is enabled. The returned func releases the browser and domain memory.
func Build(bcfg config.BrowserConfig, ecfg config.EngineConfig) (Engine, func(), error) {
	httpEngine := NewHTTPEngine()
	if !bcfg.Enabled {
		return httpEngine, func() {}, nil
	}

	browser, err := LaunchBrowser(bcfg)
	if err != nil {
		return nil, nil, err
	}

	memory := NewDomainMemory(ecfg.MemoryTTL)
	engines := []Engine{httpEngine, NewRodEngine(browser)}
	dispatcher := NewDispatcher(engines, ecfg.EscalationDelays, memory)
	slog.Info("multi-engine dispatcher enabled",
		"engines", len(engines),
		"delays", ecfg.EscalationDelays,
	)

	return dispatcher, func() {
		memory.Stop()
		browser.Close()
	}, nil
}
