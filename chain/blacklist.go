package chain

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bananocoin/wban-bridge/address"
)

// StaticBlacklist implements chain.Blacklist from a flat file of banned
// native addresses, one per line, loaded once at startup. The
// specification leaves the blacklist's data source unspecified; a static
// file is the simplest collaborator that satisfies the interface without
// inventing an external service the pack doesn't justify.
type StaticBlacklist struct {
	entries map[string]string // native addr -> alias
}

// LoadStaticBlacklist reads path, one "address,alias" pair per line
// (alias optional), and returns a ready StaticBlacklist.
func LoadStaticBlacklist(path string) (*StaticBlacklist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chain: open blacklist file: %w", err)
	}
	defer f.Close()

	entries := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ",", 2)
		addr := address.Native(parts[0])
		alias := addr
		if len(parts) == 2 {
			alias = strings.TrimSpace(parts[1])
		}
		entries[addr] = alias
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("chain: read blacklist file: %w", err)
	}

	return &StaticBlacklist{entries: entries}, nil
}

// IsBlacklisted reports whether nativeAddr appears in the loaded list.
func (b *StaticBlacklist) IsBlacklisted(ctx context.Context, nativeAddr string) (string, bool, error) {
	alias, found := b.entries[address.Native(nativeAddr)]
	return alias, found, nil
}

var _ Blacklist = (*StaticBlacklist)(nil)
