package gbl

import (
	"strconv"
	"strings"

	cmap "github.com/orcaman/concurrent-map"
)

//SetPredicateKey identifies a categorical branch predicate: the feature, its flag row and the branch side.
type SetPredicateKey struct {
	Feature int
	Flags   string
	Left    bool
}

//NewSetPredicateKey encodes a flag row into a comparable key.
func NewSetPredicateKey(feature int, flags []int, left bool) SetPredicateKey {
	var sb strings.Builder
	for i, f := range flags {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(f))
	}
	return SetPredicateKey{Feature: feature, Flags: sb.String(), Left: left}
}

func (k SetPredicateKey) String() string {
	side := "R"
	if k.Left {
		side = "L"
	}
	return strconv.Itoa(k.Feature) + "|" + side + "|" + k.Flags
}

//PredicateCache returns one canonical predicate per key, calling build only on a miss.
type PredicateCache interface {
	GetOrBuild(key SetPredicateKey, build func() *SimpleSetPredicate) *SimpleSetPredicate
	Len() int
}

type mapPredicateCache struct {
	predicates map[SetPredicateKey]*SimpleSetPredicate
}

//NewPredicateCache creates a cache for a single goroutine.
func NewPredicateCache() PredicateCache {
	return &mapPredicateCache{predicates: make(map[SetPredicateKey]*SimpleSetPredicate)}
}

func (c *mapPredicateCache) GetOrBuild(key SetPredicateKey, build func() *SimpleSetPredicate) *SimpleSetPredicate {
	if p, ok := c.predicates[key]; ok {
		return p
	}
	p := build()
	c.predicates[key] = p
	return p
}

func (c *mapPredicateCache) Len() int {
	return len(c.predicates)
}

type concurrentPredicateCache struct {
	predicates cmap.ConcurrentMap
}

//NewConcurrentPredicateCache creates a cache safe for parallel decoders. The build function
//runs under the shard lock, so a key is constructed at most once.
func NewConcurrentPredicateCache() PredicateCache {
	return &concurrentPredicateCache{predicates: cmap.New()}
}

func (c *concurrentPredicateCache) GetOrBuild(key SetPredicateKey, build func() *SimpleSetPredicate) *SimpleSetPredicate {
	value := c.predicates.Upsert(key.String(), nil, func(exist bool, valueInMap interface{}, _ interface{}) interface{} {
		if exist {
			return valueInMap
		}
		return build()
	})
	return value.(*SimpleSetPredicate)
}

func (c *concurrentPredicateCache) Len() int {
	return c.predicates.Count()
}
