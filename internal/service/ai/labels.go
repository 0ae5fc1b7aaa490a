package ai

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ClassNames maps class IDs to labels.
type ClassNames []string

// Label returns the name for id, or "class<id>" when unknown.
func (n ClassNames) Label(id int) string {
	if id >= 0 && id < len(n) && n[id] != "" {
		return n[id]
	}
	return fmt.Sprintf("class%d", id)
}

// LoadClassNames reads a label file. YAML files may hold a plain list or an
// Ultralytics dataset file with a "names" list or index map; anything else is
// read as one label per line.
func LoadClassNames(path string) (ClassNames, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read class names: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAMLNames(data)
	default:
		return parseTextNames(data), nil
	}
}

func parseTextNames(data []byte) ClassNames {
	var names ClassNames
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			names = append(names, line)
		}
	}
	return names
}

func parseYAMLNames(data []byte) (ClassNames, error) {
	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil && len(list) > 0 {
		return list, nil
	}

	var dataset struct {
		Names yaml.Node `yaml:"names"`
	}
	if err := yaml.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("failed to parse class names: %w", err)
	}

	switch dataset.Names.Kind {
	case yaml.SequenceNode:
		if err := dataset.Names.Decode(&list); err != nil {
			return nil, fmt.Errorf("failed to parse names list: %w", err)
		}
		return list, nil

	case yaml.MappingNode:
		var byID map[int]string
		if err := dataset.Names.Decode(&byID); err != nil {
			return nil, fmt.Errorf("failed to parse names map: %w", err)
		}
		ids := make([]int, 0, len(byID))
		for id := range byID {
			if id < 0 {
				return nil, fmt.Errorf("negative class id %d", id)
			}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("no class names found")
		}
		sort.Ints(ids)

		names := make(ClassNames, ids[len(ids)-1]+1)
		for _, id := range ids {
			names[id] = byID[id]
		}
		return names, nil
	}

	return nil, fmt.Errorf("no class names found")
}
