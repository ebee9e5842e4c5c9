package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultConfigEnv names the environment variable ResolvePath consults for an
// override apps-config path. The daemon does not call ResolvePath; it takes
// the apps-config path from its own DaemonConfig.AppsConfigPath.
const DefaultConfigEnv = "APPSUPERVISOR_CONFIG"

// DefaultConfigPaths are tried in order when the env override is unset.
var DefaultConfigPaths = []string{
	"/etc/appsupervisor/appsupervisor.yaml",
	"appsupervisor.yaml",
}

// ResolvePath picks the config file path: explicit env var first, then the
// first existing default path.
func ResolvePath() (string, error) {
	if p := os.Getenv(DefaultConfigEnv); p != "" {
		return p, nil
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no config file found: set %s or place one of %v", DefaultConfigEnv, DefaultConfigPaths)
}

// LoadFile parses a YAML document at path into a Tree, preserving mapping key
// order so that `procs` and `groups` subtrees enumerate in declaration order
// the way the supervisor core's ordering guarantees require.
func LoadFile(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return LoadBytes(data)
}

// LoadBytes parses raw YAML bytes into a Tree.
func LoadBytes(data []byte) (*Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	t := NewTree()
	if len(doc.Content) == 0 {
		return t, nil
	}
	buildNode(t.root, doc.Content[0])
	return t, nil
}

func buildNode(dst *Node, src *yaml.Node) {
	switch src.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(src.Content); i += 2 {
			key := src.Content[i].Value
			val := src.Content[i+1]
			child := dst.ensureChild(key)
			switch val.Kind {
			case yaml.ScalarNode:
				child.value = scalarString(val)
				child.hasValue = true
			case yaml.MappingNode:
				buildNode(child, val)
			case yaml.SequenceNode:
				buildSequence(child, val)
			}
		}
	case yaml.SequenceNode:
		buildSequence(dst, src)
	case yaml.ScalarNode:
		dst.value = scalarString(src)
		dst.hasValue = true
	}
}

// buildSequence represents a YAML list as ordered children: a scalar
// element becomes a child named by its own value, a single-key mapping
// becomes a child named by that key, and any other element becomes a
// child named by its index ("0", "1", ...) — this lets a
// `groups:` list of bare strings and a `procs:` list of named subtrees both
// map naturally onto the ordered-children model the core expects.
func buildSequence(dst *Node, src *yaml.Node) {
	for i, item := range src.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			child := dst.ensureChild(scalarString(item))
			child.value = scalarString(item)
			child.hasValue = true
		case yaml.MappingNode:
			if len(item.Content) == 2 && item.Content[0].Kind == yaml.ScalarNode {
				child := dst.ensureChild(item.Content[0].Value)
				buildNode(child, item.Content[1])
				continue
			}
			child := dst.ensureChild(strconv.Itoa(i))
			buildNode(child, item)
		default:
			child := dst.ensureChild(strconv.Itoa(i))
			buildNode(child, item)
		}
	}
}

func scalarString(n *yaml.Node) string {
	return n.Value
}
