package plugin

import (
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/scottdixon/cli-engine/internal/command"
	"github.com/scottdixon/cli-engine/internal/config"
	"github.com/scottdixon/cli-engine/internal/paths"
)

// Provider contributes topics and commands to the merged catalog.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string
	// Init loads the provider's plugins. It is called once per Manager
	// init; an error drops the provider from the catalog for this run.
	Init() error
	// Topics returns the provider's topic records.
	Topics() []*command.Topic
	// Commands returns the provider's resolved commands.
	Commands() []*command.Command
}

// Manager merges providers into one catalog. Providers are held in merge
// order (builtin first, then linked, then user); on conflicting metadata
// the later provider wins, so user plugins shadow linked ones, which
// shadow builtins.
type Manager struct {
	cfg      *config.Config
	logger   *log.Logger
	manifest *Manifest

	providers []Provider
	user      *UserProvider
	linked    *LinkedProvider

	initialized bool
	topics      map[string]*command.Topic
	commands    map[string]*command.Command
	commandIDs  []string
}

// NewManager creates a Manager with the linked and user providers
// registered. Builtin commands are registered separately via SetBuiltin
// before Init.
func NewManager(cfg *config.Config, p *paths.Paths, pm PackageManager, logger *log.Logger) *Manager {
	m := &Manager{
		cfg:      cfg,
		logger:   logger,
		manifest: LoadManifest(p.UserPluginsManifest()),
		topics:   map[string]*command.Topic{},
		commands: map[string]*command.Command{},
	}
	m.linked = NewLinkedProvider(cfg, p, m.manifest, logger)
	m.user = NewUserProvider(cfg, p, pm, m.manifest, logger)
	m.providers = []Provider{m.linked, m.user}
	return m
}

// SetBuiltin registers the engine's own commands as the lowest-precedence
// provider.
func (m *Manager) SetBuiltin(topics []*command.Topic, commands []*command.Command) {
	b := &BuiltinProvider{topics: topics, commands: commands}
	m.providers = append([]Provider{b}, m.providers...)
}

// User returns the user plugin provider for install/uninstall operations.
func (m *Manager) User() *UserProvider { return m.user }

// Linked returns the linked plugin provider.
func (m *Manager) Linked() *LinkedProvider { return m.linked }

// Init loads all providers and merges their catalogs. It is idempotent; a
// provider that fails to load is reported as a warning and omitted rather
// than crashing the CLI.
func (m *Manager) Init() error {
	if m.initialized {
		return nil
	}
	m.initialized = true

	for _, p := range m.providers {
		if err := p.Init(); err != nil {
			m.logger.Warn("plugin provider failed to load", "provider", p.Name(), "err", err)
			continue
		}
		m.merge(p)
	}
	m.finalize()

	if err := m.manifest.Save(); err != nil {
		m.logger.Debug("could not save plugin manifest", "err", err)
	}
	return nil
}

// Reinit drops the merged catalog and loads everything again. Used after a
// plugin mutation.
func (m *Manager) Reinit() error {
	m.initialized = false
	m.topics = map[string]*command.Topic{}
	m.commands = map[string]*command.Command{}
	m.commandIDs = nil
	return m.Init()
}

// merge folds one provider's topics and commands into the catalog. Later
// providers win conflicts, both for topic metadata and for command IDs.
func (m *Manager) merge(p Provider) {
	for _, t := range p.Topics() {
		if t.Name == "" {
			continue
		}
		existing, ok := m.topics[t.Name]
		if !ok {
			existing = command.NewTopic(t.Name)
			m.topics[t.Name] = existing
		}
		existing.Merge(t)
	}
	for _, c := range p.Commands() {
		if c.ID == "" {
			continue
		}
		m.commands[c.ID] = c
	}
}

// finalize sorts the merged command IDs and synthesizes topic records
// implied by command IDs whose prefix has no declared topic, so help can
// always descend from a topic to its commands.
func (m *Manager) finalize() {
	m.commandIDs = m.commandIDs[:0]
	for id, c := range m.commands {
		m.commandIDs = append(m.commandIDs, id)

		topic := c.Topic()
		if topic == "" {
			continue
		}
		t, ok := m.topics[topic]
		if !ok {
			t = command.NewTopic(topic)
			m.topics[topic] = t
		}
		t.Commands[id] = struct{}{}
	}
	sort.Strings(m.commandIDs)
}

// FindCommand resolves id (or one of its aliases) to a command in the
// merged catalog. Collisions were already settled at merge time in favor
// of the highest-precedence provider.
func (m *Manager) FindCommand(id string) *command.Command {
	return m.commands[command.Unalias(m.cfg, id)]
}

// FindTopic is a read-only lookup into the merged topics.
func (m *Manager) FindTopic(name string) *command.Topic {
	return m.topics[name]
}

// CommandsForTopic returns the resolved, non-hidden commands whose ID sits
// under name (exact prefix followed by a colon).
func (m *Manager) CommandsForTopic(name string) []*command.Command {
	var out []*command.Command
	for _, id := range m.commandIDs {
		if !strings.HasPrefix(id, name+":") {
			continue
		}
		if c := m.commands[id]; c != nil && !c.Hidden {
			out = append(out, c)
		}
	}
	return out
}

// RootCommands returns the non-hidden commands with no colon in their ID.
func (m *Manager) RootCommands() []*command.Command {
	var out []*command.Command
	for _, id := range m.commandIDs {
		if strings.Contains(id, ":") {
			continue
		}
		if c := m.commands[id]; c != nil && !c.Hidden {
			out = append(out, c)
		}
	}
	return out
}

// RootTopics returns the non-hidden topics one level deep, sorted.
func (m *Manager) RootTopics() []*command.Topic {
	var out []*command.Topic
	for name, t := range m.topics {
		if t.Hidden || strings.Contains(name, ":") {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CommandIDs returns the sorted merged command IDs.
func (m *Manager) CommandIDs() []string {
	return m.commandIDs
}

// Plugins lists the loaded linked and user plugins for the plugins command.
func (m *Manager) Plugins() []*Plugin {
	var out []*Plugin
	out = append(out, m.linked.Plugins()...)
	out = append(out, m.user.Plugins()...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
