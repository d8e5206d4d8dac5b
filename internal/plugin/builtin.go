package plugin

import (
	"github.com/scottdixon/cli-engine/internal/command"
)

// BuiltinProvider serves the engine's own commands. It has no on-disk
// state; its catalog is handed over fully formed at startup.
type BuiltinProvider struct {
	topics   []*command.Topic
	commands []*command.Command
}

// Name implements Provider.
func (b *BuiltinProvider) Name() string { return TypeBuiltin.String() }

// Init implements Provider.
func (b *BuiltinProvider) Init() error { return nil }

// Topics implements Provider.
func (b *BuiltinProvider) Topics() []*command.Topic { return b.topics }

// Commands implements Provider.
func (b *BuiltinProvider) Commands() []*command.Command { return b.commands }
