// Package file provides a file-based persistence implementation, used
// for development and tests.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/convobase/convobase/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of a directory
// of JSON documents. One file per entity; repositories serialize their
// read-modify-write operations with a mutex, which is enough for the
// single-process deployments this backend targets.
type Persistence struct {
	root          string
	automations   *AutomationRepository
	conversations *ConversationRepository
	messages      *MessageRepository
	integrations  *IntegrationRepository
	executions    *ExecutionLogRepository
	socialPosts   *SocialPostRepository
}

// NewPersistence creates a file persistence rooted at the given
// directory. A "file://" prefix is accepted and stripped.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:          cleanRoot,
		automations:   &AutomationRepository{dir: filepath.Join(cleanRoot, "automations")},
		conversations: &ConversationRepository{dir: filepath.Join(cleanRoot, "conversations")},
		messages:      &MessageRepository{dir: filepath.Join(cleanRoot, "messages")},
		integrations:  &IntegrationRepository{dir: filepath.Join(cleanRoot, "integrations")},
		executions:    &ExecutionLogRepository{dir: filepath.Join(cleanRoot, "executions")},
		socialPosts:   &SocialPostRepository{dir: filepath.Join(cleanRoot, "socialposts")},
	}
}

func (p *Persistence) AutomationRepository() persistence.AutomationRepository {
	return p.automations
}

func (p *Persistence) ConversationRepository() persistence.ConversationRepository {
	return p.conversations
}

func (p *Persistence) MessageRepository() persistence.MessageRepository {
	return p.messages
}

func (p *Persistence) IntegrationRepository() persistence.IntegrationRepository {
	return p.integrations
}

func (p *Persistence) ExecutionLogRepository() persistence.ExecutionLogRepository {
	return p.executions
}

func (p *Persistence) SocialPostRepository() persistence.SocialPostRepository {
	return p.socialPosts
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. Nothing to clean up for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// readDocument loads one JSON document, reporting existence separately.
func readDocument(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return true, nil
}

// writeDocument stores one JSON document, creating the directory first.
func writeDocument(path string, in any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}

	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// decodeJSON unmarshals a stored document with a wrapped error.
func decodeJSON(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}

	return nil
}

// listDocuments decodes every .json file in a directory via decode.
func listDocuments(dir string, decode func(data []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("failed to list %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}

		if err := decode(data); err != nil {
			return err
		}
	}

	return nil
}
