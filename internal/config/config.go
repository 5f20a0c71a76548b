package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"evcache/internal/hashring"
	"evcache/internal/ring"
)

// Peer represents a peer node in the cluster.
type Peer struct {
	ID   string `yaml:"id"`
	Addr string `yaml:"addr"`
}

// Config holds the node configuration.
type Config struct {
	NodeID     string `yaml:"node_id"`
	ListenAddr string `yaml:"listen_addr"`
	Peers      []Peer `yaml:"peers"`
	VNodes     int    `yaml:"vnodes"`

	// Algorithm names the hash ring algorithm; see hashring.Names.
	Algorithm hashring.Name `yaml:"algorithm"`
	// KeyHash names the key hash used by the simple algorithm.
	KeyHash string `yaml:"key_hash"`

	// Logger receives configuration events. Defaults to slog.Default.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultAlgorithm is used when Config.Algorithm is empty.
const DefaultAlgorithm = hashring.NameKetamaMD5

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Load reads a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML config data, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = DefaultAlgorithm
	}
	if c.VNodes <= 0 {
		c.VNodes = ring.DefaultPointsPerNode
	}
}

// Validate checks that the config names a registered algorithm and that
// the key hash is only set for the simple algorithm.
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("%w: node_id is required", ErrInvalidConfig)
	}
	known := false
	for _, name := range hashring.Names() {
		if name == c.Algorithm {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, hashring.ErrUnknownAlgorithm, c.Algorithm)
	}
	if c.KeyHash != "" {
		if c.Algorithm != hashring.NameSimple {
			return fmt.Errorf("%w: key_hash %q requires algorithm %q", ErrInvalidConfig, c.KeyHash, hashring.NameSimple)
		}
		if _, err := hashring.LookupKeyHash(c.KeyHash); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	for _, peer := range c.Peers {
		if peer.ID == "" || peer.Addr == "" {
			return fmt.Errorf("%w: peer ID and address cannot be empty: %+v", ErrInvalidConfig, peer)
		}
	}
	return nil
}

// ParsePeers parses a comma-separated list of peers in the format:
// "id1=addr1,id2=addr2,id3=addr3"
func ParsePeers(peersStr string) ([]Peer, error) {
	if peersStr == "" {
		return []Peer{}, nil
	}

	parts := strings.Split(peersStr, ",")
	peers := make([]Peer, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid peer format: %s (expected id=addr)", part)
		}

		id := strings.TrimSpace(kv[0])
		addr := strings.TrimSpace(kv[1])

		if id == "" || addr == "" {
			return nil, fmt.Errorf("peer ID and address cannot be empty: %s", part)
		}

		peers = append(peers, Peer{
			ID:   id,
			Addr: addr,
		})
	}

	return peers, nil
}

// BuildRingNodes converts config peers + self into ring.Node slice.
// Includes self node in the list.
func (c *Config) BuildRingNodes() []ring.Node {
	nodes := make([]ring.Node, 0, len(c.Peers)+1)

	// Add self
	nodes = append(nodes, ring.Node{
		ID:   c.NodeID,
		Addr: c.ListenAddr,
	})

	// Add peers
	for _, peer := range c.Peers {
		// Skip self if it appears in peers list
		if peer.ID != c.NodeID {
			nodes = append(nodes, ring.Node{
				ID:   peer.ID,
				Addr: peer.Addr,
			})
		}
	}

	return nodes
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// NewAlgorithm constructs the configured hash ring algorithm. An error here
// is fatal: callers must not substitute another algorithm, since nodes
// hashing differently disagree on key placement.
func (c *Config) NewAlgorithm() (hashring.Algorithm, error) {
	name := c.Algorithm
	if name == "" {
		name = DefaultAlgorithm
	}
	algo, err := hashring.New(name, c.KeyHash)
	if err != nil {
		c.logger().Error("hash ring algorithm unavailable",
			slog.String("node_id", c.NodeID),
			slog.String("algorithm", string(name)),
			slog.Any("error", err))
		return nil, err
	}
	c.logger().Info("hash ring algorithm configured",
		slog.String("node_id", c.NodeID),
		slog.String("algorithm", string(name)),
		slog.String("key_hash", c.KeyHash),
		slog.Int("hash_parts", algo.CountHashParts()))
	return algo, nil
}

// NewRing builds a ring over self and peers using the configured algorithm.
func (c *Config) NewRing() (*ring.Ring, error) {
	algo, err := c.NewAlgorithm()
	if err != nil {
		return nil, err
	}
	r := ring.NewRing(algo, c.VNodes)
	nodes := c.BuildRingNodes()
	r.SetNodes(nodes)
	c.logger().Info("ring built",
		slog.String("node_id", c.NodeID),
		slog.Int("nodes", len(nodes)),
		slog.Int("points_per_node", r.PointsPerNode()))
	return r, nil
}
