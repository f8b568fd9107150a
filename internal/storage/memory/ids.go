package memory

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Entity id prefixes.
const (
	prefixIncident = "inc"
	prefixService  = "svc"
	prefixComment  = "cmt"
	prefixActivity = "act"
)

// idFactory issues ids of the form {prefix}_{NNN}_{suffix}. Counters are per
// prefix; the suffix is derived from prefix and counter, so a fresh store
// loaded with the same data issues the same ids.
type idFactory struct {
	counters map[string]int
}

func newIDFactory() *idFactory {
	return &idFactory{counters: make(map[string]int)}
}

func (f *idFactory) next(prefix string) string {
	n := f.counters[prefix] + 1
	f.counters[prefix] = n

	name := prefix + "_" + strconv.Itoa(n)
	suffix := strings.ReplaceAll(uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String(), "-", "")[:8]
	return fmt.Sprintf("%s_%03d_%s", prefix, n, suffix)
}

// observe raises the counter of id's prefix to at least its numeric part.
// Ids that do not follow the {prefix}_{NNN}[_{suffix}] shape are ignored.
func (f *idFactory) observe(id string) {
	parts := strings.SplitN(id, "_", 3)
	if len(parts) < 2 {
		return
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return
	}
	if n > f.counters[parts[0]] {
		f.counters[parts[0]] = n
	}
}
