package algos

import (
	"github.com/vanrijn/nederlandskie/internal/domain"
	"github.com/vanrijn/nederlandskie/internal/langdetect"
)

// BuildRegistry constructs the fixed set of algorithms this feed generator
// serves. Both the indexer (which consults every algorithm per post) and
// the feed server (which consults one algorithm per request) build the same
// registry from the same storage ports, so adding a new algorithm here is
// the only change needed to wire it into both processes.
func BuildRegistry(detector langdetect.Detector, profiles domain.ProfileRepository, posts domain.PostRepository) *domain.Registry {
	return domain.NewRegistryBuilder().
		Add(NewNederlandskie(detector, profiles, posts)).
		Build()
}
