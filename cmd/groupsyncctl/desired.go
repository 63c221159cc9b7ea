package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
	"gopkg.in/yaml.v3"
)

// desiredFile - файл со списком участников. JSON читается тем же декодером,
// так как является подмножеством YAML.
type desiredFile struct {
	Members []desiredEntry `yaml:"members"`
}

type desiredEntry struct {
	ID        int64  `yaml:"id"`
	Name      string `yaml:"name"`
	Email     string `yaml:"email"`
	IsCreator bool   `yaml:"is_creator"`
}

func parseDesired(r io.Reader) ([]domain.DesiredMember, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file desiredFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("members file is empty")
		}
		return nil, fmt.Errorf("parse members file: %w", err)
	}

	desired := make([]domain.DesiredMember, 0, len(file.Members))
	for i, entry := range file.Members {
		if strings.TrimSpace(entry.Name) == "" {
			return nil, fmt.Errorf("member %d: name is required", i)
		}
		desired = append(desired, domain.DesiredMember{
			ID:        entry.ID,
			Name:      entry.Name,
			Email:     entry.Email,
			IsCreator: entry.IsCreator,
		})
	}
	return desired, nil
}
