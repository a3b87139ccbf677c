package audio

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// Node names a vertex of the effects graph.
type Node string

const (
	NodeSource      Node = "source"
	NodeConvolver   Node = "convolver"
	NodeGain        Node = "gain"
	NodeDestination Node = "destination"
)

// Edge is a directed connection between two nodes.
type Edge struct {
	From, To Node
}

// GraphBackend realises graph operations on a concrete audio stack.
type GraphBackend interface {
	CreateNode(n Node) error
	Connect(from, to Node) error
	Disconnect(from, to Node) error
	// ApplyEffects pushes effect parameters and the environment's reverb character.
	ApplyEffects(params models.EffectParams, env models.Environment) error
	// Teardown drops every node; the backend passes audio straight through afterwards.
	Teardown()
}

// Graph owns the effects topology: source → (convolver wet ∥ dry) → gain → destination.
//
// It is built lazily on first playback. Construction failures are logged and the graph
// degrades to no effects; playback is never blocked on it.
type Graph struct {
	backend  GraphBackend
	logger   *log.Logger
	built    bool
	degraded bool
	err      error
	env      models.Environment
	params   models.EffectParams
	edges    map[Edge]struct{}
}

// NewGraph creates an unbuilt graph over backend.
func NewGraph(backend GraphBackend, logger *log.Logger) *Graph {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Graph{
		backend: backend,
		logger:  logger,
		env:     models.EnvNone,
		edges:   make(map[Edge]struct{}),
	}
}

// Built reports whether the graph has been built and not degraded.
func (g *Graph) Built() bool { return g.built && !g.degraded }

// Degraded reports whether construction failed and effects are disabled.
func (g *Graph) Degraded() bool { return g.degraded }

// Err returns the recorded construction failure, wrapping [shared.ErrEffectsUnavailable].
func (g *Graph) Err() error { return g.err }

// Environment returns the current environment setting.
func (g *Graph) Environment() models.Environment { return g.env }

// Params returns the current effect parameters.
func (g *Graph) Params() models.EffectParams { return g.params }

// Connections reports the number of live edges.
func (g *Graph) Connections() int { return len(g.edges) }

// Connected reports whether the edge from → to is live.
func (g *Graph) Connected(from, to Node) bool {
	_, ok := g.edges[Edge{from, to}]
	return ok
}

// Build creates the nodes and wires the current environment. Building twice is a no-op.
func (g *Graph) Build() {
	if g.built || g.degraded {
		return
	}

	for _, n := range []Node{NodeSource, NodeConvolver, NodeGain, NodeDestination} {
		if err := g.backend.CreateNode(n); err != nil {
			g.degrade(fmt.Errorf("create %s: %w", n, err))
			return
		}
	}
	if err := g.connect(NodeGain, NodeDestination); err != nil {
		g.degrade(err)
		return
	}
	if err := g.wire(); err != nil {
		g.degrade(err)
		return
	}

	g.built = true
	g.push()
	g.logger.Debug("effects graph built", "environment", g.env, "connections", len(g.edges))
}

// SetEnvironment switches the acoustic environment, rewiring source edges when built.
func (g *Graph) SetEnvironment(env models.Environment) {
	g.env = env
	if !g.Built() {
		return
	}

	for _, e := range []Edge{{NodeSource, NodeGain}, {NodeSource, NodeConvolver}, {NodeConvolver, NodeGain}} {
		if err := g.disconnect(e.From, e.To); err != nil {
			g.degrade(err)
			return
		}
	}
	if err := g.wire(); err != nil {
		g.degrade(err)
		return
	}
	g.push()
	g.logger.Debug("environment changed", "environment", env, "connections", len(g.edges))
}

// SetEffects stores params and pushes them to the backend when built.
func (g *Graph) SetEffects(params models.EffectParams) {
	g.params = params.Clamped()
	if g.Built() {
		g.push()
	}
}

// Close tears the graph down. It can be built again afterwards.
func (g *Graph) Close() {
	if g.built || g.degraded {
		g.backend.Teardown()
	}
	g.edges = make(map[Edge]struct{})
	g.built = false
	g.degraded = false
	g.err = nil
}

// wire connects the source edges for the current environment.
func (g *Graph) wire() error {
	if err := g.connect(NodeSource, NodeGain); err != nil {
		return err
	}
	if !g.env.Wet() {
		return nil
	}
	if err := g.connect(NodeSource, NodeConvolver); err != nil {
		return err
	}
	return g.connect(NodeConvolver, NodeGain)
}

func (g *Graph) connect(from, to Node) error {
	e := Edge{from, to}
	if _, ok := g.edges[e]; ok {
		return nil
	}
	if err := g.backend.Connect(from, to); err != nil {
		return fmt.Errorf("connect %s->%s: %w", from, to, err)
	}
	g.edges[e] = struct{}{}
	return nil
}

func (g *Graph) disconnect(from, to Node) error {
	e := Edge{from, to}
	if _, ok := g.edges[e]; !ok {
		return nil
	}
	if err := g.backend.Disconnect(from, to); err != nil {
		return fmt.Errorf("disconnect %s->%s: %w", from, to, err)
	}
	delete(g.edges, e)
	return nil
}

func (g *Graph) push() {
	if err := g.backend.ApplyEffects(g.params, g.env); err != nil {
		g.logger.Warn("failed to apply effects", "err", err)
	}
}

func (g *Graph) degrade(err error) {
	g.err = fmt.Errorf("%w: %v", shared.ErrEffectsUnavailable, err)
	g.degraded = true
	g.built = false
	g.edges = make(map[Edge]struct{})
	g.backend.Teardown()
	g.logger.Warn("effects disabled", "err", err)
}
