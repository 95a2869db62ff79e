package config

import (
	"fmt"

	"github.com/flightdecklabs/flightdeck/agent"
	"github.com/flightdecklabs/flightdeck/logging"
	"github.com/flightdecklabs/flightdeck/model"
)

// ClientResolver maps a definition's model name to a concrete client. The
// empty string asks for the default client.
type ClientResolver func(name string) (model.Client, error)

// FactoryOptions configures a Factory.
type FactoryOptions struct {
	Logger logging.Logger
}

// Factory builds runnable agent graphs from declarative configuration.
type Factory struct {
	resolve ClientResolver
	logger  logging.Logger
}

// NewFactory creates a Factory that uses resolve for every model reference.
func NewFactory(resolve ClientResolver, optFns ...func(o *FactoryOptions)) *Factory {
	opts := FactoryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Factory{resolve: resolve, logger: opts.Logger}
}

// Build constructs every declared agent and returns them by name. Plain
// agents build first; supervisors build once all of their collaborators
// exist, so supervisors may reference other supervisors in any declaration
// order.
func (f *Factory) Build(cfg *Config) (map[string]agent.Invoker, error) {
	built := make(map[string]agent.Invoker, len(cfg.Agents))

	pending := make([]AgentDef, 0, len(cfg.Agents))
	for _, def := range cfg.Agents {
		if len(def.Collaborators) == 0 {
			a, err := f.buildAgent(def)
			if err != nil {
				return nil, err
			}
			built[def.Name] = a
			continue
		}
		pending = append(pending, def)
	}

	for len(pending) > 0 {
		progress := false
		remaining := pending[:0]
		for _, def := range pending {
			if !f.ready(def, built) {
				remaining = append(remaining, def)
				continue
			}
			s, err := f.buildSupervisor(def, built)
			if err != nil {
				return nil, err
			}
			built[def.Name] = s
			progress = true
		}
		pending = remaining
		if !progress {
			names := make([]string, len(pending))
			for i, def := range pending {
				names[i] = def.Name
			}
			return nil, fmt.Errorf("collaborator cycle involving agents %v", names)
		}
	}

	return built, nil
}

func (f *Factory) ready(def AgentDef, built map[string]agent.Invoker) bool {
	for _, ref := range def.Collaborators {
		if _, ok := built[ref]; !ok {
			return false
		}
	}
	return true
}

func (f *Factory) buildAgent(def AgentDef) (agent.Invoker, error) {
	client, err := f.resolve(def.Model)
	if err != nil {
		return nil, fmt.Errorf("resolve model for agent %q: %w", def.Name, err)
	}

	f.logger.Debug("config.build.agent", "name", def.Name, "model", def.Model)
	return agent.New(def.Name, def.Instruction, client, func(o *agent.Options) {
		o.Logger = f.logger
		if def.MaxIterations > 0 {
			o.MaxIterations = def.MaxIterations
		}
	}), nil
}

func (f *Factory) buildSupervisor(def AgentDef, built map[string]agent.Invoker) (agent.Invoker, error) {
	client, err := f.resolve(def.Model)
	if err != nil {
		return nil, fmt.Errorf("resolve model for agent %q: %w", def.Name, err)
	}

	collaborators := make([]agent.Invoker, len(def.Collaborators))
	for i, ref := range def.Collaborators {
		collaborators[i] = built[ref]
	}

	mode := agent.ModeSupervisor
	if def.Mode == "router" {
		mode = agent.ModeRouter
	}

	f.logger.Debug("config.build.supervisor",
		"name", def.Name,
		"mode", string(mode),
		"collaborators", len(collaborators),
	)
	return agent.NewSupervisor(def.Name, def.Instruction, client, collaborators, func(o *agent.SupervisorOptions) {
		o.Mode = mode
		o.Logger = f.logger
		if def.MaxIterations > 0 {
			o.MaxIterations = def.MaxIterations
		}
	}), nil
}
