// Package useragent turns User-Agent headers into the caller description
// stored with each search.
package useragent

import (
	"strings"

	"github.com/aluiziolira/ebook-search/models"
	lru "github.com/hashicorp/golang-lru/v2"
	ua "github.com/mssola/useragent"
)

// Parser memoizes parsed headers, since a handful of clients send most
// requests.
type Parser struct {
	cache *lru.Cache[string, models.UserAgent]
}

// NewParser builds a parser remembering up to size headers. A non-positive
// size disables the cache.
func NewParser(size int) (*Parser, error) {
	if size <= 0 {
		return &Parser{}, nil
	}
	cache, err := lru.New[string, models.UserAgent](size)
	if err != nil {
		return nil, err
	}
	return &Parser{cache: cache}, nil
}

// Parse describes header. It returns nil for an empty header.
func (p *Parser) Parse(header string) *models.UserAgent {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}
	if p.cache != nil {
		if cached, ok := p.cache.Get(header); ok {
			return &cached
		}
	}

	parsed := describe(header)
	if p.cache != nil {
		p.cache.Add(header, parsed)
	}
	return &parsed
}

func describe(header string) models.UserAgent {
	agent := ua.New(header)
	browser, browserVersion := agent.Browser()
	engine, engineVersion := agent.Engine()
	osInfo := agent.OSInfo()

	return models.UserAgent{
		UA:       header,
		Browser:  models.Agent{Name: browser, Version: browserVersion},
		Engine:   models.Agent{Name: engine, Version: engineVersion},
		OS:       models.Agent{Name: osInfo.Name, Version: osInfo.Version},
		Platform: agent.Platform(),
		Mobile:   agent.Mobile(),
		Bot:      agent.Bot(),
	}
}
