package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"

	"github.com/JaimeStill/go-agents/pkg/agent"
	agtconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// AgentModel delegates to a go-agents agent built from a JSON config file.
type AgentModel struct {
	agent agent.Agent
}

// NewAgentModel loads an AgentConfig from path, merges it over the library
// defaults and builds the agent.
func NewAgentModel(path string) (*AgentModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent config: %w", err)
	}

	cfg := agtconfig.DefaultAgentConfig()

	var userCfg agtconfig.AgentConfig
	if err := json.Unmarshal(data, &userCfg); err != nil {
		return nil, fmt.Errorf("parse agent config: %w", err)
	}

	cfg.Merge(&userCfg)

	ag, err := agent.New(&cfg)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return &AgentModel{agent: ag}, nil
}

func (m *AgentModel) Complete(ctx context.Context, system, user string, image []byte) (string, error) {
	opts := map[string]any{
		"system_prompt": system,
		"temperature":   0.0,
	}

	if image != nil {
		resp, err := m.agent.Vision(ctx, user, []string{pngDataURI(image)}, opts)
		if err != nil {
			return "", classifyAgentError(err)
		}
		return resp.Content(), nil
	}

	resp, err := m.agent.Chat(ctx, user, opts)
	if err != nil {
		return "", classifyAgentError(err)
	}
	return resp.Content(), nil
}

var statusPattern = regexp.MustCompile(`\b(4\d\d|5\d\d)\b`)

// classifyAgentError maps go-agents errors, which carry the provider's HTTP
// status only in their message, onto the extractor failure classes.
func classifyAgentError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}

	if m := statusPattern.FindString(err.Error()); m != "" {
		status, _ := strconv.Atoi(m)
		if transientStatus(status) {
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
