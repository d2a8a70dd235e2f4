package loader

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/calumari/restitch/internal/syntax"
)

const typeCacheSize = 4096

// typeCache holds parsed types keyed by their source text. Cached values are
// never handed out; callers get clones they may mutate.
var typeCache *lru.Cache[string, syntax.Type]

func init() {
	c, err := lru.New[string, syntax.Type](typeCacheSize)
	if err != nil {
		panic(err)
	}
	typeCache = c
}

func parseType(s string) (syntax.Type, error) {
	if t, ok := typeCache.Get(s); ok {
		return t.CloneType(), nil
	}
	t, err := syntax.ParseType(s)
	if err != nil {
		return nil, err
	}
	typeCache.Add(s, t)
	return t.CloneType(), nil
}
